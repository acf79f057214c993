package str

import (
	"fmt"
	"strings"

	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/options"
	"github.com/arloliu/csfkit/sidecar"
)

// MetadataMode selects where Encode puts the header metadata.
type MetadataMode uint8

const (
	// MetadataInline embeds metadata as a synthetic first entry labelled MetaLabel.
	MetadataInline MetadataMode = iota
	// MetadataSidecar returns metadata as a separate sidecar value.
	MetadataSidecar
)

func (m MetadataMode) String() string {
	switch m {
	case MetadataInline:
		return "inline"
	case MetadataSidecar:
		return "sidecar"
	default:
		return fmt.Sprintf("MetadataMode(%d)", uint8(m))
	}
}

// ParseMetadataMode parses "inline" or "sidecar", case-insensitively. The
// empty string means MetadataInline.
func ParseMetadataMode(name string) (MetadataMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "inline":
		return MetadataInline, nil
	case "sidecar":
		return MetadataSidecar, nil
	default:
		return 0, fmt.Errorf("unknown metadata mode %q", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for configuration files.
func (m *MetadataMode) UnmarshalText(text []byte) error {
	parsed, err := ParseMetadataMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed

	return nil
}

type encodeConfig struct {
	mode         MetadataMode
	compression  format.CompressionType
	sourceDigest string
}

// EncodeOption configures Encode.
type EncodeOption = options.Option[*encodeConfig]

// WithMetadataMode selects the metadata strategy. The default is MetadataInline.
func WithMetadataMode(m MetadataMode) EncodeOption {
	return options.New(func(c *encodeConfig) error {
		if m != MetadataInline && m != MetadataSidecar {
			return fmt.Errorf("unknown metadata mode %d", uint8(m))
		}
		c.mode = m

		return nil
	})
}

// WithExtraCompression selects how the extra-data sidecar stores payloads.
// The default is format.CompressionNone.
func WithExtraCompression(ct format.CompressionType) EncodeOption {
	return options.New(func(c *encodeConfig) error {
		if ct.String() == "Unknown" {
			return fmt.Errorf("unknown compression type %d", uint8(ct))
		}
		c.compression = ct

		return nil
	})
}

// WithSourceDigest records the digest of the CSF file being converted in the metadata.
func WithSourceDigest(hexDigest string) EncodeOption {
	return options.NoError(func(c *encodeConfig) {
		c.sourceDigest = hexDigest
	})
}

type decodeConfig struct {
	lenient  bool
	metadata *sidecar.Metadata
	extra    *sidecar.ExtraData
}

// DecodeOption configures Decode.
type DecodeOption = options.Option[*decodeConfig]

// WithLenient accepts hand-edited files: blank lines between entries are
// skipped, the final separator may be missing, the value may lack its quotes
// and unknown escapes are kept literally. END is still required.
func WithLenient() DecodeOption {
	return options.NoError(func(c *decodeConfig) {
		c.lenient = true
	})
}

// WithMetadata supplies a metadata sidecar. It takes precedence over an
// inline metadata entry, which is then read as an ordinary entry.
func WithMetadata(m sidecar.Metadata) DecodeOption {
	return options.NoError(func(c *decodeConfig) {
		c.metadata = &m
	})
}

// WithExtraData supplies the extra-data sidecar. A nil x is ignored.
func WithExtraData(x *sidecar.ExtraData) DecodeOption {
	return options.NoError(func(c *decodeConfig) {
		c.extra = x
	})
}
