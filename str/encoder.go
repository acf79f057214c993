package str

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/csfkit/encoding"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/options"
	"github.com/arloliu/csfkit/internal/pool"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/sidecar"
	"github.com/arloliu/csfkit/table"
)

// MetaLabel labels the inline metadata entry.
const MetaLabel = "CSFSTUFF:META"

const endMarker = "END"

// Output is the result of Encode.
type Output struct {
	// Text is the STR file content.
	Text []byte
	// Metadata is set only under MetadataSidecar; otherwise the metadata is
	// already part of Text.
	Metadata *sidecar.Metadata
	// Extra holds every extra payload, or is nil when no value carries one.
	Extra *sidecar.ExtraData
}

// Encode renders header and t as STR text plus sidecars.
//
// It fails with *errs.FormatError when a label cannot be written as an STR
// line (empty, containing CR, LF or NUL, or not valid UTF-8) or collides with
// MetaLabel under MetadataInline, and with *errs.SidecarMismatchError when
// duplicate labels carry different extra payloads, since the label-keyed
// sidecar could not restore both.
//
// Parameters:
//   - header: CSF header whose preserved fields become metadata
//   - t: Entries to write, in order
//   - opts: Metadata placement, payload compression and source digest
//
// Returns:
//   - *Output: STR text plus the sidecars it needs
//   - error: Label, duplicate payload or option error
func Encode(header section.Header, t *table.Table, opts ...EncodeOption) (*Output, error) {
	cfg := &encodeConfig{compression: format.CompressionNone}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	extra, err := collectExtra(t, cfg)
	if err != nil {
		return nil, err
	}

	meta := sidecar.MetadataFromHeader(header)
	if header.LabelCount != uint32(t.Len()) { //nolint:gosec
		// stale counts say nothing about this table
		meta.StringCount = nil
	}
	meta.SourceBLAKE3 = cfg.sourceDigest
	if extra != nil {
		meta.ExtraCount = extra.Len()
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	out := &Output{Extra: extra}
	if cfg.mode == MetadataInline {
		js, err := meta.Marshal()
		if err != nil {
			return nil, err
		}
		writeEntry(buf, MetaLabel, string(js))
	} else {
		out.Metadata = &meta
	}

	for label, v := range t.All() {
		writeEntry(buf, label, v.Text)
	}
	out.Text = buf.Clone()

	return out, nil
}

func collectExtra(t *table.Table, cfg *encodeConfig) (*sidecar.ExtraData, error) {
	var extra *sidecar.ExtraData
	seen := make(map[string]table.Value, t.Len())

	for idx := range t.Len() {
		e := t.At(idx)
		label, v := e.Label, e.Value
		if err := checkLabel(idx, label, cfg.mode); err != nil {
			return nil, err
		}

		if prev, ok := seen[label]; ok {
			if prev.HasExtra() != v.HasExtra() || !bytes.Equal(prev.Extra, v.Extra) {
				return nil, &errs.SidecarMismatchError{Label: label, Msg: "duplicate labels carry different extra payloads"}
			}
		} else {
			seen[label] = v
			if v.HasExtra() {
				if extra == nil {
					extra = sidecar.NewExtraData(cfg.compression)
				}
				extra.Set(label, v.Extra)
			}
		}
	}

	return extra, nil
}

func checkLabel(idx int, label string, mode MetadataMode) error {
	var msg string
	switch {
	case label == "":
		msg = "empty label"
	case strings.ContainsAny(label, "\r\n\x00"):
		msg = fmt.Sprintf("label %q contains a line break or NUL", label)
	case !utf8.ValidString(label):
		msg = fmt.Sprintf("label %q is not valid UTF-8", label)
	case mode == MetadataInline && label == MetaLabel:
		msg = fmt.Sprintf("label %q is reserved for inline metadata", label)
	default:
		return nil
	}

	return errs.NewSTRError(idx, -1, msg, errs.ErrInvalidLabel)
}

func writeEntry(buf *pool.ByteBuffer, label, text string) {
	escaped := encoding.Escape(text)
	buf.Grow(len(label) + len(escaped) + len(endMarker) + 6)

	_, _ = buf.WriteString(label)
	_ = buf.WriteByte('\n')
	_ = buf.WriteByte('"')
	_, _ = buf.WriteString(escaped)
	_ = buf.WriteByte('"')
	_ = buf.WriteByte('\n')
	_, _ = buf.WriteString(endMarker)
	_, _ = buf.WriteString("\n\n")
}
