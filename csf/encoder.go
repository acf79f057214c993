package csf

import (
	"fmt"
	"math"

	"github.com/arloliu/csfkit/encoding"
	"github.com/arloliu/csfkit/endian"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
	"github.com/arloliu/csfkit/internal/pool"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/table"
)

// Encode serializes header and t into a CSF file.
//
// Version, Reserved and Language are taken from header. The magic is always
// " FSC" and LabelCount is derived from t. StringCount is written as given
// when header.LabelCount matches t, so a file read by Decode is reproduced
// exactly; otherwise the header is stale and StringCount equals LabelCount.
// Values with an extra payload are written as WRTS.
//
// Parameters:
//   - header: Source of version, language, reserved field and string count
//   - t: Entries to write, in order
//
// Returns:
//   - []byte: Complete CSF file contents
//   - error: *errs.FormatError if a length does not fit its 32-bit field
func Encode(header section.Header, t *table.Table) ([]byte, error) {
	if uint64(t.Len()) > math.MaxUint32 {
		return nil, errs.NewCSFError(-1, 8, fmt.Sprintf("too many entries: %d", t.Len()), nil)
	}

	h := header
	h.Magic = format.KindFile.Tag()
	if h.LabelCount != uint32(t.Len()) { //nolint:gosec
		h.LabelCount = uint32(t.Len()) //nolint:gosec
		h.StringCount = h.LabelCount
	}

	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)

	buf.B = h.AppendTo(buf.B)

	engine := endian.GetLittleEndianEngine()
	for idx := range t.Len() {
		e := t.At(idx)
		label, v := e.Label, e.Value
		units := encoding.Complement(encoding.EncodeUnits(v.Text))
		if err := checkLengths(idx, buf.Len(), label, units, v.Extra); err != nil {
			return nil, err
		}

		buf.Grow(section.LabelHeaderSize + len(label) + section.StringHeaderSize +
			2*len(units) + section.ExtraLengthSize + len(v.Extra))

		lh := section.LabelHeader{ValueCount: 1, NameLength: uint32(len(label))} //nolint:gosec
		buf.B = lh.AppendTo(buf.B)
		buf.B = append(buf.B, label...)

		sh := section.StringHeader{Kind: format.KindText, UnitCount: uint32(len(units))} //nolint:gosec
		if v.HasExtra() {
			sh.Kind = format.KindTextExtra
		}
		buf.B = sh.AppendTo(buf.B)
		for _, u := range units {
			buf.B = engine.AppendUint16(buf.B, u)
		}

		if v.HasExtra() {
			buf.B = engine.AppendUint32(buf.B, uint32(len(v.Extra))) //nolint:gosec
			buf.B = append(buf.B, v.Extra...)
		}
	}

	return buf.Clone(), nil
}

func checkLengths(idx, offset int, label string, units []uint16, extra []byte) error {
	switch {
	case uint64(len(label)) > math.MaxUint32:
		return errs.NewCSFError(idx, offset, fmt.Sprintf("label of %d bytes too long", len(label)), nil)
	case uint64(len(units)) > math.MaxUint32:
		return errs.NewCSFError(idx, offset, fmt.Sprintf("text of %d units too long", len(units)), nil)
	case uint64(len(extra)) > math.MaxUint32:
		return errs.NewCSFError(idx, offset, fmt.Sprintf("extra payload of %d bytes too long", len(extra)), nil)
	}

	return nil
}
