// Package endian provides byte order utilities for the CSF binary layout.
//
// CSF files store every integer field little-endian. The EndianEngine interface
// combines encoding/binary's ByteOrder and AppendByteOrder so the writer can
// append fields directly to a growing buffer:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, labelCount)
//
// Reading goes through a Cursor, which tracks the current offset and refuses
// to read past the end of the input instead of panicking.
//
// # Thread Safety
//
// EndianEngine values are immutable and safe for concurrent use. A Cursor is
// not; use one per goroutine.
package endian

import (
	"encoding/binary"

	"github.com/arloliu/csfkit/errs"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// Cursor reads fixed-width fields sequentially from a byte slice.
type Cursor struct {
	data   []byte
	off    int
	engine EndianEngine
}

// NewCursor creates a Cursor positioned at the start of data.
func NewCursor(data []byte, engine EndianEngine) *Cursor {
	return &Cursor{data: data, engine: engine}
}

// Offset returns the current read offset.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.off
}

// Next returns the next n bytes and advances the cursor. The returned slice
// aliases the input. It returns errs.ErrTruncated when fewer than n bytes remain.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, errs.ErrTruncated
	}
	b := c.data[c.off : c.off+n]
	c.off += n

	return b, nil
}

// Tag reads a 4-byte record tag.
func (c *Cursor) Tag() ([4]byte, error) {
	var tag [4]byte
	b, err := c.Next(4)
	if err != nil {
		return tag, err
	}
	copy(tag[:], b)

	return tag, nil
}

// Uint32 reads a uint32 field.
func (c *Cursor) Uint32() (uint32, error) {
	b, err := c.Next(4)
	if err != nil {
		return 0, err
	}

	return c.engine.Uint32(b), nil
}

// Uint16s reads count consecutive uint16 values into a new slice.
func (c *Cursor) Uint16s(count int) ([]uint16, error) {
	if count < 0 || count > c.Remaining()/2 {
		return nil, errs.ErrTruncated
	}
	b, _ := c.Next(count * 2)

	units := make([]uint16, count)
	for i := range units {
		units[i] = c.engine.Uint16(b[i*2:])
	}

	return units, nil
}
