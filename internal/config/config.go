// Package config loads the csfkit configuration file.
//
// The file is TOML. Every key is optional; command-line flags override the
// values it provides.
//
//	log_level = "info"
//	log_format = "text"
//	metadata_mode = "inline"
//	extra_compression = "zstd"
//	meta_suffix = ".meta.json"
//	extra_suffix = ".extra.json"
//	lenient = false
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/logging"
	"github.com/arloliu/csfkit/str"
)

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultMetaSuffix  = ".meta.json"
	defaultExtraSuffix = ".extra.json"

	// FileName is the configuration file looked up in the user config directory.
	FileName = "csfkit.toml"
)

// Config holds the settings shared by all commands.
type Config struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	MetadataMode     str.MetadataMode       `toml:"metadata_mode"`
	ExtraCompression format.CompressionType `toml:"extra_compression"`

	// MetaSuffix and ExtraSuffix are appended to an STR path to name its sidecars.
	MetaSuffix  string `toml:"meta_suffix"`
	ExtraSuffix string `toml:"extra_suffix"`

	Lenient bool `toml:"lenient"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.fillDefaults()

	return cfg
}

// DefaultPath returns the per-user configuration file path, or "" when the
// user config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "csfkit", FileName)
}

// Load reads the configuration at path. A missing file yields the defaults;
// unknown keys and invalid values are errors.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			cfg = Config{}
		case err != nil:
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}

				return Config{}, fmt.Errorf("parse config %s: unknown keys %s", path, strings.Join(keys, ", "))
			}
		}
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) fillDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.ExtraCompression == 0 {
		c.ExtraCompression = format.CompressionNone
	}
	if c.MetaSuffix == "" {
		c.MetaSuffix = defaultMetaSuffix
	}
	if c.ExtraSuffix == "" {
		c.ExtraSuffix = defaultExtraSuffix
	}
}

// Validate checks the logging settings and that the sidecar suffixes differ.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if c.MetaSuffix == c.ExtraSuffix {
		return fmt.Errorf("meta_suffix and extra_suffix must differ, both are %q", c.MetaSuffix)
	}

	return nil
}

// MetaPath returns the metadata sidecar path for an STR file.
func (c Config) MetaPath(strPath string) string {
	return strPath + c.MetaSuffix
}

// ExtraPath returns the extra-data sidecar path for an STR file.
func (c Config) ExtraPath(strPath string) string {
	return strPath + c.ExtraSuffix
}
