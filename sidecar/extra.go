package sidecar

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/arloliu/csfkit/compress"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
)

// ExtraData maps labels to the extra payloads of their WRTS values.
//
// Payloads are held uncompressed; Compression only selects how Marshal
// stores them.
type ExtraData struct {
	Compression format.CompressionType
	entries     map[string][]byte
}

// NewExtraData creates an empty ExtraData that marshals with compression c.
func NewExtraData(c format.CompressionType) *ExtraData {
	return &ExtraData{
		Compression: c,
		entries:     make(map[string][]byte),
	}
}

// Set stores payload for label, replacing any previous payload. A nil payload
// is stored as an empty one.
func (x *ExtraData) Set(label string, payload []byte) {
	p := make([]byte, len(payload))
	copy(p, payload)
	x.entries[label] = p
}

// Get returns the payload for label.
func (x *ExtraData) Get(label string) ([]byte, bool) {
	p, ok := x.entries[label]
	if !ok {
		return nil, false
	}

	return slices.Clone(p), true
}

// Len returns the number of labels with a payload.
func (x *ExtraData) Len() int {
	return len(x.entries)
}

// Labels returns the labels in sorted order.
func (x *ExtraData) Labels() []string {
	return slices.Sorted(maps.Keys(x.entries))
}

type extraWire struct {
	Compression format.CompressionType `json:"compression"`
	Entries     map[string][]byte      `json:"entries"`
}

// Marshal returns the indented JSON form of x. Payloads are compressed with
// x.Compression and base64 encoded; keys are sorted.
func (x *ExtraData) Marshal() ([]byte, error) {
	data, _, err := x.MarshalWithStats()
	return data, err
}

// MarshalWithStats is Marshal that also reports the compression effect.
func (x *ExtraData) MarshalWithStats() ([]byte, compress.Stats, error) {
	stats := compress.Stats{Algorithm: x.Compression}

	codec, err := compress.GetCodec(x.Compression)
	if err != nil {
		return nil, stats, err
	}

	w := extraWire{
		Compression: x.Compression,
		Entries:     make(map[string][]byte, len(x.entries)),
	}
	for label, p := range x.entries {
		packed, err := codec.Compress(p)
		if err != nil {
			return nil, stats, fmt.Errorf("compress payload of %q: %w", label, err)
		}
		if packed == nil {
			packed = []byte{}
		}
		w.Entries[label] = packed
		stats.Add(len(p), len(packed))
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, stats, err
	}

	return append(data, '\n'), stats, nil
}

// ParseExtraData decodes the JSON form produced by Marshal. A missing
// compression field means the payloads are stored uncompressed.
func ParseExtraData(data []byte) (*ExtraData, error) {
	var w extraWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &errs.SidecarMismatchError{Msg: fmt.Sprintf("unreadable extra-data sidecar: %v", err)}
	}
	if w.Compression == 0 {
		w.Compression = format.CompressionNone
	}

	codec, err := compress.GetCodec(w.Compression)
	if err != nil {
		return nil, err
	}

	x := NewExtraData(w.Compression)
	for label, packed := range w.Entries {
		p, err := codec.Decompress(packed)
		if err != nil {
			return nil, &errs.SidecarMismatchError{Label: label, Msg: fmt.Sprintf("corrupt payload: %v", err)}
		}
		x.Set(label, p)
	}

	return x, nil
}
