// Command csfkit converts CSF string tables to STR text and back, and merges
// STR files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"

	"github.com/arloliu/csfkit/internal/config"
	"github.com/arloliu/csfkit/internal/logging"
)

const version = "0.1.0"

// Globals are the flags shared by every command.
type Globals struct {
	Config    string `name:"config" help:"Configuration file (default: user config dir)" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn, error"`
	LogFormat string `name:"log-format" help:"Log format: text, json"`
}

// CLI defines the command-line interface for csfkit.
type CLI struct {
	Globals

	ToSTR   ToSTRCmd   `cmd:"" name:"to-str" help:"Convert a CSF file to STR text"`
	ToCSF   ToCSFCmd   `cmd:"" name:"to-csf" help:"Convert an STR file back to CSF"`
	Merge   MergeCmd   `cmd:"" help:"Merge STR files, later files overriding earlier ones"`
	Verify  VerifyCmd  `cmd:"" help:"Check that a CSF file survives a round trip through STR"`
	Info    InfoCmd    `cmd:"" help:"Describe a CSF file"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Env is the state handed to every command.
type Env struct {
	Ctx    context.Context
	Config config.Config
	Stdout io.Writer
}

func newEnv(g Globals, stdout, stderr io.Writer) (*Env, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath()
	} else if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.LogLevel = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.LogFormat = g.LogFormat
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level, format, stderr)

	runID := logging.NewRunID()
	ctx := logging.WithRunID(context.Background(), runID)
	logging.DebugContext(ctx, "config loaded", "path", path)

	return &Env{Ctx: ctx, Config: cfg, Stdout: stdout}, nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("csfkit"),
		kong.Description("Lossless CSF string table to STR text converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	env, err := newEnv(cli.Globals, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)

	err = ctx.Run(env)
	ctx.FatalIfErrorf(err)
}
