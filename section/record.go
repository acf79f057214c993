package section

import (
	"fmt"

	"github.com/arloliu/csfkit/endian"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
)

// LabelHeader is the fixed part of a label record: the " LBL" tag, the number
// of values attached to the label and the byte length of the name that follows.
type LabelHeader struct {
	ValueCount uint32 // 4 bytes, offset 4-7
	NameLength uint32 // 4 bytes, offset 8-11
}

// Parse parses a label header from the first LabelHeaderSize bytes of data.
func (h *LabelHeader) Parse(data []byte) error {
	if len(data) < LabelHeaderSize {
		return fmt.Errorf("%w: label header needs %d bytes, have %d", errs.ErrTruncated, LabelHeaderSize, len(data))
	}

	if [4]byte(data[0:4]) != format.KindLabel.Tag() {
		return fmt.Errorf("bad label tag %q, expecting %q", data[0:4], " LBL")
	}

	engine := endian.GetLittleEndianEngine()
	h.ValueCount = engine.Uint32(data[4:8])
	h.NameLength = engine.Uint32(data[8:12])

	return nil
}

// AppendTo appends the serialized label header to buf.
func (h LabelHeader) AppendTo(buf []byte) []byte {
	engine := endian.GetLittleEndianEngine()
	tag := format.KindLabel.Tag()

	buf = append(buf, tag[:]...)
	buf = engine.AppendUint32(buf, h.ValueCount)
	buf = engine.AppendUint32(buf, h.NameLength)

	return buf
}

// StringHeader is the fixed part of a value record: the " RTS" or "WRTS" tag
// and the number of UTF-16 code units that follow.
type StringHeader struct {
	Kind      format.RecordKind
	UnitCount uint32
}

// Parse parses a string header from the first StringHeaderSize bytes of data.
func (h *StringHeader) Parse(data []byte) error {
	if len(data) < StringHeaderSize {
		return fmt.Errorf("%w: value header needs %d bytes, have %d", errs.ErrTruncated, StringHeaderSize, len(data))
	}

	kind, ok := format.ValueKindFromTag([4]byte(data[0:4]))
	if !ok {
		return fmt.Errorf("bad value tag %q, expecting %q or %q", data[0:4], " RTS", "WRTS")
	}

	h.Kind = kind
	h.UnitCount = endian.GetLittleEndianEngine().Uint32(data[4:8])

	return nil
}

// AppendTo appends the serialized string header to buf.
func (h StringHeader) AppendTo(buf []byte) []byte {
	tag := h.Kind.Tag()
	buf = append(buf, tag[:]...)

	return endian.GetLittleEndianEngine().AppendUint32(buf, h.UnitCount)
}
