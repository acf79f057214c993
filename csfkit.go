// Package csfkit converts CSF binary string tables to STR text and back, and
// merges STR files.
//
// CSF is the localized string table format of the Command & Conquer games.
// STR is its line-oriented text form: four lines per entry, easy to edit and
// diff. The conversion is lossless. Header fields travel as metadata (inline
// by default), and the opaque payloads of WRTS values travel in an
// extra-data sidecar, so converting a CSF file to STR and back reproduces it
// byte for byte.
//
// # Basic Usage
//
// Converting a CSF file to STR:
//
//	bundle, err := csfkit.ToSTR(csfData)
//	if err != nil {
//	    return err
//	}
//	// bundle.Text is the STR file; bundle.Extra is nil unless some value
//	// carries an extra payload.
//
// Converting back:
//
//	res, err := csfkit.ToCSF(bundle)
//	// res.Data equals csfData
//
// Merging STR files, later files taking precedence:
//
//	merged, err := csfkit.Merge([]csfkit.Bundle{base, overlay})
//
// # Package Structure
//
// This package wraps the lower level packages for the common cases: csf
// (binary codec), str (text codec), sidecar (side files) and merge (ordered
// fold). Use them directly for finer control.
package csfkit

import (
	"fmt"

	"github.com/arloliu/csfkit/csf"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/hash"
	"github.com/arloliu/csfkit/internal/options"
	"github.com/arloliu/csfkit/merge"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/sidecar"
	"github.com/arloliu/csfkit/str"
	"github.com/arloliu/csfkit/table"
)

// Bundle is an STR file together with its sidecars, all as file contents.
type Bundle struct {
	// Text is the STR file.
	Text []byte
	// Metadata is the metadata sidecar JSON. It is nil when the metadata is
	// inline in Text.
	Metadata []byte
	// Extra is the extra-data sidecar JSON, nil when no value carries a payload.
	Extra []byte
}

type config struct {
	mode        str.MetadataMode
	compression format.CompressionType
	lenient     bool
}

// Option configures the conversions in this package.
type Option = options.Option[*config]

// WithMetadataMode selects where produced STR files keep their metadata.
func WithMetadataMode(m str.MetadataMode) Option {
	return options.NoError(func(c *config) {
		c.mode = m
	})
}

// WithExtraCompression selects the payload compression of produced extra-data sidecars.
func WithExtraCompression(ct format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.compression = ct
	})
}

// WithLenient reads STR input with the lenient parser. See str.WithLenient.
func WithLenient() Option {
	return options.NoError(func(c *config) {
		c.lenient = true
	})
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) encodeOptions() []str.EncodeOption {
	return []str.EncodeOption{
		str.WithMetadataMode(c.mode),
		str.WithExtraCompression(c.compression),
	}
}

// ToSTR converts CSF file contents to an STR bundle. The metadata records the
// BLAKE3 digest of csfData.
func ToSTR(csfData []byte, opts ...Option) (Bundle, error) {
	b, _, err := ToSTRWithSummary(csfData, opts...)
	return b, err
}

// ToSTRWithSummary is ToSTR that also describes the converted file, from the
// same decode.
func ToSTRWithSummary(csfData []byte, opts ...Option) (Bundle, Summary, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Bundle{}, Summary{}, err
	}

	header, t, err := csf.Decode(csfData)
	if err != nil {
		return Bundle{}, Summary{}, err
	}
	summary := summarize(csfData, header, t)

	encOpts := append(cfg.encodeOptions(), str.WithSourceDigest(summary.Digest))
	b, err := encodeBundle(header, t, encOpts)
	if err != nil {
		return Bundle{}, Summary{}, err
	}

	return b, summary, nil
}

func encodeBundle(header section.Header, t *table.Table, encOpts []str.EncodeOption) (Bundle, error) {
	out, err := str.Encode(header, t, encOpts...)
	if err != nil {
		return Bundle{}, err
	}

	b := Bundle{Text: out.Text}
	if out.Metadata != nil {
		if b.Metadata, err = out.Metadata.Marshal(); err != nil {
			return Bundle{}, err
		}
	}
	if out.Extra != nil {
		if b.Extra, err = out.Extra.Marshal(); err != nil {
			return Bundle{}, err
		}
	}

	return b, nil
}

// CSFResult is the outcome of ToCSF.
type CSFResult struct {
	// Data is the CSF file.
	Data []byte
	// Digest is the BLAKE3 digest of Data.
	Digest string
	// SourceDigest is the digest recorded in the metadata, empty if none.
	SourceDigest string
	// MetadataDefaulted reports that the bundle carried no metadata and
	// default header values were used.
	MetadataDefaulted bool
	// Entries is the number of entries written.
	Entries int
}

// MatchesSource reports whether the rebuilt file is identical to the file
// the STR text was produced from.
func (r CSFResult) MatchesSource() bool {
	return r.SourceDigest != "" && r.SourceDigest == r.Digest
}

// ToCSF converts an STR bundle back to CSF file contents.
func ToCSF(b Bundle, opts ...Option) (CSFResult, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return CSFResult{}, err
	}

	res, err := decodeBundle(b, cfg)
	if err != nil {
		return CSFResult{}, err
	}

	data, err := csf.Encode(res.Header, res.Table)
	if err != nil {
		return CSFResult{}, err
	}

	return CSFResult{
		Data:              data,
		Digest:            hash.Digest(data),
		SourceDigest:      res.Metadata.SourceBLAKE3,
		MetadataDefaulted: res.MetadataDefaulted,
		Entries:           res.Table.Len(),
	}, nil
}

func decodeBundle(b Bundle, cfg *config) (*str.Result, error) {
	var decOpts []str.DecodeOption
	if cfg.lenient {
		decOpts = append(decOpts, str.WithLenient())
	}
	if b.Metadata != nil {
		m, err := sidecar.ParseMetadata(b.Metadata)
		if err != nil {
			return nil, err
		}
		decOpts = append(decOpts, str.WithMetadata(m))
	}
	if b.Extra != nil {
		x, err := sidecar.ParseExtraData(b.Extra)
		if err != nil {
			return nil, err
		}
		decOpts = append(decOpts, str.WithExtraData(x))
	}

	return str.Decode(b.Text, decOpts...)
}

// MergeResult is the outcome of Merge.
type MergeResult struct {
	Bundle
	// Entries is the number of entries in the merged file.
	Entries int
	// DefaultedInputs lists the inputs that carried no metadata.
	DefaultedInputs []int
}

// Merge merges STR bundles in priority order, later inputs overriding
// earlier ones. The merged metadata is that of the first input.
func Merge(inputs []Bundle, opts ...Option) (MergeResult, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return MergeResult{}, err
	}

	var defaulted []int
	decoded := make([]merge.Input, len(inputs))
	for i, b := range inputs {
		res, err := decodeBundle(b, cfg)
		if err != nil {
			return MergeResult{}, fmt.Errorf("merge input %d: %w", i, err)
		}
		if res.MetadataDefaulted {
			defaulted = append(defaulted, i)
		}
		decoded[i] = merge.Input{Header: res.Header, Table: res.Table}
	}

	merged, err := merge.Tables(decoded...)
	if err != nil {
		return MergeResult{}, err
	}

	b, err := encodeBundle(merged.Header, merged.Table, cfg.encodeOptions())
	if err != nil {
		return MergeResult{}, err
	}

	return MergeResult{Bundle: b, Entries: merged.Table.Len(), DefaultedInputs: defaulted}, nil
}

// VerifyResult is the outcome of Verify.
type VerifyResult struct {
	SourceDigest  string
	RebuiltDigest string
	Entries       int
	ExtraPayloads int
}

// Match reports whether the round trip reproduced the input.
func (r VerifyResult) Match() bool {
	return r.SourceDigest == r.RebuiltDigest
}

// Verify converts CSF file contents to STR and back in memory and compares
// digests of the input and the rebuilt file.
func Verify(csfData []byte, opts ...Option) (VerifyResult, error) {
	bundle, err := ToSTR(csfData, opts...)
	if err != nil {
		return VerifyResult{}, err
	}

	res, err := ToCSF(bundle, opts...)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("rebuild: %w", err)
	}

	extra := 0
	if bundle.Extra != nil {
		x, err := sidecar.ParseExtraData(bundle.Extra)
		if err != nil {
			return VerifyResult{}, err
		}
		extra = x.Len()
	}

	return VerifyResult{
		SourceDigest:  res.SourceDigest,
		RebuiltDigest: res.Digest,
		Entries:       res.Entries,
		ExtraPayloads: extra,
	}, nil
}

// Summary describes a CSF file.
type Summary struct {
	Header        section.Header
	Entries       int
	Distinct      int
	ExtraPayloads int
	Duplicates    []string
	// HashCollision reports that two distinct labels share an xxHash64 ID.
	// Lookups stay correct; the flag only explains a slower index.
	HashCollision bool
	// Fingerprint is an order-sensitive xxHash64 over labels, texts and payloads.
	Fingerprint uint64
	Digest      string
}

// Inspect decodes CSF file contents and summarizes them.
func Inspect(csfData []byte) (Summary, error) {
	header, t, err := csf.Decode(csfData)
	if err != nil {
		return Summary{}, err
	}

	return summarize(csfData, header, t), nil
}

func summarize(csfData []byte, header section.Header, t *table.Table) Summary {
	return Summary{
		Header:        header,
		Entries:       t.Len(),
		Distinct:      t.Distinct(),
		ExtraPayloads: t.ExtraCount(),
		Duplicates:    t.Duplicates(),
		HashCollision: t.HasHashCollision(),
		Fingerprint:   Fingerprint(t),
		Digest:        hash.Digest(csfData),
	}
}

// Fingerprint returns an order-sensitive xxHash64 over the labels, texts and
// payloads of t. Two tables with equal fingerprints are equal with high
// probability; a payload-free value and an empty payload hash differently.
func Fingerprint(t *table.Table) uint64 {
	fp := hash.NewFingerprint()
	for label, v := range t.All() {
		fp.AddString(label)
		fp.AddString(v.Text)
		if v.HasExtra() {
			fp.Add([]byte{1})
			fp.Add(v.Extra)
		} else {
			fp.Add([]byte{0})
		}
	}

	return fp.Sum64()
}
