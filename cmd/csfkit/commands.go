package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/csfkit"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/fileutil"
	"github.com/arloliu/csfkit/internal/logging"
	"github.com/arloliu/csfkit/str"
)

const filePerm = 0o644

var errVerifyMismatch = errors.New("round trip mismatch")

// ToSTRCmd converts a CSF file to STR text.
type ToSTRCmd struct {
	In               string `arg:"" help:"CSF file to read" type:"existingfile"`
	Out              string `arg:"" help:"STR file to write" type:"path"`
	MetaSidecar      bool   `name:"meta-sidecar" help:"Write metadata to a sidecar file instead of inline"`
	Meta             string `help:"Metadata sidecar path, implies --meta-sidecar (default: OUT + meta suffix)" type:"path"`
	Extra            string `help:"Extra-data sidecar path (default: OUT + extra suffix)" type:"path"`
	ExtraCompression string `name:"extra-compression" help:"Payload compression: none, zstd, s2, lz4, xz"`
}

func (c *ToSTRCmd) Run(env *Env) error {
	start := time.Now()

	data, err := fileutil.ReadFile(c.In)
	if err != nil {
		return err
	}

	opts, err := env.writeOptions(c.MetaSidecar || c.Meta != "", c.ExtraCompression)
	if err != nil {
		return err
	}

	bundle, summary, err := csfkit.ToSTRWithSummary(data, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", c.In, err)
	}
	if len(summary.Duplicates) > 0 {
		logging.WarnContext(env.Ctx, "duplicate labels kept in order", "labels", summary.Duplicates)
	}

	if err := env.writeBundle(c.Out, c.Meta, c.Extra, bundle); err != nil {
		return err
	}
	logging.Conversion(env.Ctx, "to-str", summary.Entries, time.Since(start),
		"in", c.In, "language", summary.Header.Language.String())

	return nil
}

// ToCSFCmd converts an STR file back to CSF.
type ToCSFCmd struct {
	In      string `arg:"" help:"STR file to read" type:"existingfile"`
	Out     string `arg:"" help:"CSF file to write" type:"path"`
	Meta    string `help:"Metadata sidecar path (default: IN + meta suffix, if present)" type:"existingfile"`
	Extra   string `help:"Extra-data sidecar path (default: IN + extra suffix, if present)" type:"existingfile"`
	Lenient bool   `help:"Accept hand-edited STR files with blank lines and loose quoting"`
}

func (c *ToCSFCmd) Run(env *Env) error {
	start := time.Now()

	bundle, err := env.loadBundle(c.In, c.Meta, c.Extra)
	if err != nil {
		return err
	}

	res, err := csfkit.ToCSF(bundle, env.readOptions(c.Lenient)...)
	if err != nil {
		return fmt.Errorf("%s: %w", c.In, err)
	}
	if res.MetadataDefaulted {
		logging.WarnContext(env.Ctx, "no metadata found, using defaults", "in", c.In)
	}

	if err := env.write([]fileutil.Output{{Kind: "csf", Path: c.Out, Data: res.Data}}, nil); err != nil {
		return err
	}

	switch {
	case res.SourceDigest == "":
	case res.MatchesSource():
		logging.InfoContext(env.Ctx, "output matches source", "blake3", res.Digest)
	default:
		logging.WarnContext(env.Ctx, "output differs from source",
			"blake3", res.Digest, "source_blake3", res.SourceDigest)
	}
	logging.Conversion(env.Ctx, "to-csf", res.Entries, time.Since(start), "in", c.In)

	return nil
}

// MergeCmd merges STR files in priority order.
type MergeCmd struct {
	Inputs           []string `arg:"" help:"STR files, lowest priority first"`
	Out              string   `short:"o" required:"" help:"Merged STR file" type:"path"`
	MetaSidecar      bool     `name:"meta-sidecar" help:"Write merged metadata to a sidecar file instead of inline"`
	ExtraCompression string   `name:"extra-compression" help:"Payload compression: none, zstd, s2, lz4, xz"`
	Lenient          bool     `help:"Accept hand-edited STR files with blank lines and loose quoting"`
}

func (c *MergeCmd) Run(env *Env) error {
	start := time.Now()

	bundles := make([]csfkit.Bundle, len(c.Inputs))
	for i, in := range c.Inputs {
		b, err := env.loadBundle(in, "", "")
		if err != nil {
			return err
		}
		bundles[i] = b
	}

	opts, err := env.writeOptions(c.MetaSidecar, c.ExtraCompression)
	if err != nil {
		return err
	}
	opts = append(opts, env.readOptions(c.Lenient)...)

	res, err := csfkit.Merge(bundles, opts...)
	if err != nil {
		return err
	}
	for _, i := range res.DefaultedInputs {
		logging.WarnContext(env.Ctx, "no metadata found, using defaults", "in", c.Inputs[i])
	}

	if err := env.writeBundle(c.Out, "", "", res.Bundle); err != nil {
		return err
	}
	logging.Conversion(env.Ctx, "merge", res.Entries, time.Since(start), "inputs", len(c.Inputs))

	return nil
}

// VerifyCmd checks that a CSF file converts to STR and back unchanged.
type VerifyCmd struct {
	In string `arg:"" help:"CSF file to check" type:"existingfile"`
}

func (c *VerifyCmd) Run(env *Env) error {
	data, err := fileutil.ReadFile(c.In)
	if err != nil {
		return err
	}

	res, err := csfkit.Verify(data, env.readOptions(false)...)
	if err != nil {
		return fmt.Errorf("%s: %w", c.In, err)
	}

	status := "OK"
	if !res.Match() {
		status = "MISMATCH"
	}
	fmt.Fprintf(env.Stdout, "%s  %s\n", status, c.In)
	fmt.Fprintf(env.Stdout, "  entries:        %d\n", res.Entries)
	fmt.Fprintf(env.Stdout, "  extra payloads: %d\n", res.ExtraPayloads)
	fmt.Fprintf(env.Stdout, "  source blake3:  %s\n", res.SourceDigest)
	fmt.Fprintf(env.Stdout, "  rebuilt blake3: %s\n", res.RebuiltDigest)

	if !res.Match() {
		return fmt.Errorf("%s: %w", c.In, errVerifyMismatch)
	}

	return nil
}

// InfoCmd describes a CSF file.
type InfoCmd struct {
	In string `arg:"" help:"CSF file to describe" type:"existingfile"`
}

func (c *InfoCmd) Run(env *Env) error {
	data, err := fileutil.ReadFile(c.In)
	if err != nil {
		return err
	}

	s, err := csfkit.Inspect(data)
	if err != nil {
		return fmt.Errorf("%s: %w", c.In, err)
	}

	w := env.Stdout
	fmt.Fprintf(w, "File:           %s\n", c.In)
	fmt.Fprintf(w, "Version:        %d\n", s.Header.Version)
	fmt.Fprintf(w, "Language:       %s (%d)\n", s.Header.Language, uint32(s.Header.Language))
	fmt.Fprintf(w, "Reserved:       %d\n", s.Header.Reserved)
	fmt.Fprintf(w, "Entries:        %d\n", s.Entries)
	fmt.Fprintf(w, "Distinct:       %d\n", s.Distinct)
	fmt.Fprintf(w, "Extra payloads: %d\n", s.ExtraPayloads)
	fmt.Fprintf(w, "Fingerprint:    %016x\n", s.Fingerprint)
	if s.HashCollision {
		fmt.Fprintln(w, "Label hashes:   collision (lookups still exact)")
	}
	fmt.Fprintf(w, "BLAKE3:         %s\n", s.Digest)
	for _, label := range s.Duplicates {
		fmt.Fprintf(w, "Duplicate:      %s\n", label)
	}

	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(env *Env) error {
	fmt.Fprintf(env.Stdout, "csfkit version %s\n", version)
	return nil
}

func (env *Env) writeOptions(metaSidecar bool, compression string) ([]csfkit.Option, error) {
	mode := env.Config.MetadataMode
	if metaSidecar {
		mode = str.MetadataSidecar
	}

	ct := env.Config.ExtraCompression
	if compression != "" {
		var err error
		if ct, err = format.ParseCompression(compression); err != nil {
			return nil, err
		}
	}

	return []csfkit.Option{
		csfkit.WithMetadataMode(mode),
		csfkit.WithExtraCompression(ct),
	}, nil
}

func (env *Env) readOptions(lenient bool) []csfkit.Option {
	if lenient || env.Config.Lenient {
		return []csfkit.Option{csfkit.WithLenient()}
	}

	return nil
}

// loadBundle reads an STR file and its sidecars. Explicit sidecar paths must
// exist; the default paths are used only when present.
func (env *Env) loadBundle(strPath, metaPath, extraPath string) (csfkit.Bundle, error) {
	text, err := fileutil.ReadFile(strPath)
	if err != nil {
		return csfkit.Bundle{}, err
	}

	b := csfkit.Bundle{Text: text}
	if b.Metadata, err = env.readSidecar(metaPath, env.Config.MetaPath(strPath)); err != nil {
		return csfkit.Bundle{}, err
	}
	if b.Extra, err = env.readSidecar(extraPath, env.Config.ExtraPath(strPath)); err != nil {
		return csfkit.Bundle{}, err
	}

	return b, nil
}

func (env *Env) readSidecar(explicit, fallback string) ([]byte, error) {
	if explicit != "" {
		return fileutil.ReadFile(explicit)
	}

	data, ok, err := fileutil.ReadOptional(fallback)
	if ok {
		logging.DebugContext(env.Ctx, "sidecar found", "path", fallback)
	}

	return data, err
}

// writeBundle writes an STR file and the sidecars it needs as one unit. A
// sidecar left at the target path by an earlier run is removed when the new
// bundle has none, so that a later to-csf does not pick it up.
func (env *Env) writeBundle(strPath, metaPath, extraPath string, b csfkit.Bundle) error {
	if metaPath == "" {
		metaPath = env.Config.MetaPath(strPath)
	}
	if extraPath == "" {
		extraPath = env.Config.ExtraPath(strPath)
	}

	outputs := []fileutil.Output{{Kind: "str", Path: strPath, Data: b.Text}}
	var stale []string

	if b.Metadata != nil {
		outputs = append(outputs, fileutil.Output{Kind: "metadata", Path: metaPath, Data: b.Metadata})
	} else {
		stale = append(stale, metaPath)
	}
	if b.Extra != nil {
		outputs = append(outputs, fileutil.Output{Kind: "extra", Path: extraPath, Data: b.Extra})
	} else {
		stale = append(stale, extraPath)
	}

	return env.write(outputs, stale)
}

func (env *Env) write(outputs []fileutil.Output, stale []string) error {
	removed, err := fileutil.WriteAll(outputs, stale, filePerm)
	if err != nil {
		return err
	}

	for _, out := range outputs {
		logging.FileWritten(env.Ctx, out.Kind, out.Path, len(out.Data))
	}
	for _, path := range removed {
		logging.WarnContext(env.Ctx, "removed stale sidecar", "path", path)
	}

	return nil
}
