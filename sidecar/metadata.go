package sidecar

import (
	"encoding/json"
	"fmt"

	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/section"
)

// Metadata carries the CSF header fields that have no place in STR text.
//
// The JSON keys lang_code and unused match the metadata entry written by the
// csf2str tool, so files produced by it decode unchanged.
type Metadata struct {
	Version    uint32          `json:"version"`
	Language   format.Language `json:"lang_code"`
	Reserved   uint32          `json:"unused"`
	ExtraCount int             `json:"extra_count"`
	// StringCount is the header's string count when it differs from the
	// number of entries, nil otherwise.
	StringCount *uint32 `json:"string_count,omitempty"`
	// SourceBLAKE3 is the hex digest of the CSF file the text was produced from.
	SourceBLAKE3 string `json:"source_blake3,omitempty"`
}

// DefaultMetadata returns the metadata assumed when none is available:
// version 3, language 0, reserved 0.
func DefaultMetadata() Metadata {
	return Metadata{Version: section.DefaultVersion}
}

// MetadataFromHeader captures the preserved fields of h. A string count that
// differs from the label count is recorded.
func MetadataFromHeader(h section.Header) Metadata {
	m := Metadata{
		Version:  h.Version,
		Language: h.Language,
		Reserved: h.Reserved,
	}
	if h.StringCount != h.LabelCount {
		sc := h.StringCount
		m.StringCount = &sc
	}

	return m
}

// Header returns a CSF header for a table of entries entries carrying m's
// fields. StringCount is m.StringCount when set, entries otherwise.
func (m Metadata) Header(entries int) section.Header {
	h := section.NewHeader(m.Version, m.Language)
	h.Reserved = m.Reserved
	h.LabelCount = uint32(entries) //nolint:gosec
	h.StringCount = h.LabelCount
	if m.StringCount != nil {
		h.StringCount = *m.StringCount
	}

	return h
}

// Marshal returns the compact single-line JSON form of m.
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

type metadataWire struct {
	Version      *uint32 `json:"version"`
	Language     *uint32 `json:"lang_code"`
	Reserved     *uint32 `json:"unused"`
	ExtraCount   *int    `json:"extra_count"`
	StringCount  *uint32 `json:"string_count"`
	SourceBLAKE3 string  `json:"source_blake3"`
}

// ParseMetadata decodes metadata JSON. Missing fields take their default
// values, so the two-field object written by older tools is accepted.
// Malformed JSON or a negative extra count wraps errs.ErrInvalidMetadata.
func ParseMetadata(data []byte) (Metadata, error) {
	var w metadataWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", errs.ErrInvalidMetadata, err)
	}

	m := DefaultMetadata()
	if w.Version != nil {
		m.Version = *w.Version
	}
	if w.Language != nil {
		m.Language = format.Language(*w.Language)
	}
	if w.Reserved != nil {
		m.Reserved = *w.Reserved
	}
	if w.ExtraCount != nil {
		if *w.ExtraCount < 0 {
			return Metadata{}, fmt.Errorf("%w: negative extra_count %d", errs.ErrInvalidMetadata, *w.ExtraCount)
		}
		m.ExtraCount = *w.ExtraCount
	}
	m.StringCount = w.StringCount
	m.SourceBLAKE3 = w.SourceBLAKE3

	return m, nil
}
