package section

import (
	"fmt"

	"github.com/arloliu/csfkit/endian"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
)

// Header represents the fixed-size CSF file header.
// It is 24 bytes, all integers little-endian.
//
// The Reserved field has no known meaning but is carried through every
// conversion unchanged; reproducing it is required for a byte-exact rebuild.
type Header struct {
	// Magic is the " FSC" file tag.
	Magic [4]byte // 4 bytes, offset 0-3
	// Version is the CSF format version, 3 for Red Alert 2 and later.
	Version uint32 // 4 bytes, offset 4-7
	// LabelCount is the number of label records.
	LabelCount uint32 // 4 bytes, offset 8-11
	// StringCount is the total number of value records.
	StringCount uint32 // 4 bytes, offset 12-15
	// Reserved is the unused header field, preserved verbatim.
	Reserved uint32 // 4 bytes, offset 16-19
	// Language is the language code of the table.
	Language format.Language // 4 bytes, offset 20-23
}

// NewHeader creates a Header for the given version and language with zero counts.
func NewHeader(version uint32, lang format.Language) Header {
	return Header{
		Magic:    format.KindFile.Tag(),
		Version:  version,
		Language: lang,
	}
}

// Parse parses the header from a byte slice.
// It returns an error if the data is shorter than HeaderSize or the magic does not match.
//
// Parameters:
//   - data: File contents starting with the header
//
// Returns:
//   - error: errs.ErrTruncated for short input, or a bad magic error
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: file header needs %d bytes, have %d", errs.ErrTruncated, HeaderSize, len(data))
	}

	engine := endian.GetLittleEndianEngine()

	copy(h.Magic[:], data[0:4])
	h.Version = engine.Uint32(data[4:8])
	h.LabelCount = engine.Uint32(data[8:12])
	h.StringCount = engine.Uint32(data[12:16])
	h.Reserved = engine.Uint32(data[16:20])
	h.Language = format.Language(engine.Uint32(data[20:24]))

	if h.Magic != format.KindFile.Tag() {
		return fmt.Errorf("bad file magic %q, expecting %q", h.Magic[:], " FSC")
	}

	return nil
}

// Bytes serializes the Header into a new HeaderSize byte slice.
func (h Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// AppendTo appends the serialized Header to buf.
func (h Header) AppendTo(buf []byte) []byte {
	engine := endian.GetLittleEndianEngine()

	buf = append(buf, h.Magic[:]...)
	buf = engine.AppendUint32(buf, h.Version)
	buf = engine.AppendUint32(buf, h.LabelCount)
	buf = engine.AppendUint32(buf, h.StringCount)
	buf = engine.AppendUint32(buf, h.Reserved)
	buf = engine.AppendUint32(buf, uint32(h.Language))

	return buf
}
