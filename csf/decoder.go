package csf

import (
	"errors"
	"fmt"

	"github.com/arloliu/csfkit/encoding"
	"github.com/arloliu/csfkit/endian"
	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/table"
)

// Decode parses a complete CSF file.
//
// The header's LabelCount drives the number of records read. StringCount is
// not used to read the file and is returned as stored. Any structural
// problem yields an *errs.FormatError naming the record index and the byte
// offset where it was detected; no partial table is returned.
//
// Parameters:
//   - data: Complete CSF file contents
//
// Returns:
//   - section.Header: Header as stored, counts included
//   - *table.Table: Entries in file order, duplicates kept
//   - error: *errs.FormatError on malformed or truncated input
func Decode(data []byte) (section.Header, *table.Table, error) {
	var header section.Header
	if err := header.Parse(data); err != nil {
		return section.Header{}, nil, errs.NewCSFError(-1, 0, "file header", err)
	}

	d := &decoder{
		cur: endian.NewCursor(data, endian.GetLittleEndianEngine()),
	}
	_, _ = d.cur.Next(section.HeaderSize)

	// Every record needs at least a label header and a value header, which
	// bounds the preallocation for a lying header.
	hint := min(int(header.LabelCount), d.cur.Remaining()/(section.LabelHeaderSize+section.StringHeaderSize))
	b := table.NewBuilder(hint)

	for i := 0; i < int(header.LabelCount); i++ {
		label, value, err := d.record(i)
		if err != nil {
			return section.Header{}, nil, err
		}
		b.Add(label, value)
	}

	if d.cur.Remaining() > 0 {
		return section.Header{}, nil, errs.NewCSFError(-1, d.cur.Offset(),
			fmt.Sprintf("%d trailing bytes after last record", d.cur.Remaining()), nil)
	}

	return header, b.Build(), nil
}

type decoder struct {
	cur *endian.Cursor
}

func (d *decoder) record(idx int) (string, table.Value, error) {
	start := d.cur.Offset()

	raw, err := d.cur.Next(section.LabelHeaderSize)
	if err != nil {
		return "", table.Value{}, d.fail(idx, start, "label header", err)
	}

	var lh section.LabelHeader
	if err := lh.Parse(raw); err != nil {
		return "", table.Value{}, d.fail(idx, start, "label header", err)
	}
	if lh.ValueCount != 1 {
		return "", table.Value{}, errs.NewCSFError(idx, start+4,
			fmt.Sprintf("unsupported value count %d, expecting 1", lh.ValueCount), nil)
	}

	nameOff := d.cur.Offset()
	name, err := d.cur.Next(int(lh.NameLength))
	if err != nil {
		return "", table.Value{}, d.fail(idx, nameOff, fmt.Sprintf("label name of %d bytes", lh.NameLength), err)
	}

	value, err := d.value(idx)
	if err != nil {
		return "", table.Value{}, err
	}

	return string(name), value, nil
}

func (d *decoder) value(idx int) (table.Value, error) {
	start := d.cur.Offset()

	raw, err := d.cur.Next(section.StringHeaderSize)
	if err != nil {
		return table.Value{}, d.fail(idx, start, "value header", err)
	}

	var sh section.StringHeader
	if err := sh.Parse(raw); err != nil {
		return table.Value{}, d.fail(idx, start, "value header", err)
	}

	unitsOff := d.cur.Offset()
	units, err := d.cur.Uint16s(int(sh.UnitCount))
	if err != nil {
		return table.Value{}, d.fail(idx, unitsOff, fmt.Sprintf("text of %d units", sh.UnitCount), err)
	}

	v := table.Value{Text: encoding.DecodeUnits(encoding.Complement(units))}
	if !sh.Kind.HasExtra() {
		return v, nil
	}

	lenOff := d.cur.Offset()
	n, err := d.cur.Uint32()
	if err != nil {
		return table.Value{}, d.fail(idx, lenOff, "extra length", err)
	}

	extra, err := d.cur.Next(int(n))
	if err != nil {
		return table.Value{}, d.fail(idx, lenOff+section.ExtraLengthSize, fmt.Sprintf("extra payload of %d bytes", n), err)
	}
	v.Extra = append([]byte{}, extra...)

	return v, nil
}

func (d *decoder) fail(idx, offset int, what string, err error) error {
	if errors.Is(err, errs.ErrTruncated) {
		return errs.NewCSFError(idx, offset, what+" overruns input", err)
	}

	return errs.NewCSFError(idx, offset, what, err)
}
