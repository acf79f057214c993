package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/csfkit/errs"
)

func TestGetLittleEndianEngine(t *testing.T) {
	engine := GetLittleEndianEngine()
	require.Equal(t, binary.LittleEndian, engine)

	buf := engine.AppendUint32(nil, 0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf)
}

func TestCursor(t *testing.T) {
	engine := GetLittleEndianEngine()

	data := []byte{' ', 'L', 'B', 'L'}
	data = engine.AppendUint32(data, 7)
	data = engine.AppendUint16(data, 0xFFBE)
	data = engine.AppendUint16(data, 0x0041)

	c := NewCursor(data, engine)

	tag, err := c.Tag()
	require.NoError(t, err)
	require.Equal(t, [4]byte{' ', 'L', 'B', 'L'}, tag)

	v, err := c.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)
	require.Equal(t, 8, c.Offset())

	units, err := c.Uint16s(2)
	require.NoError(t, err)
	require.Equal(t, []uint16{0xFFBE, 0x0041}, units)
	require.Equal(t, 0, c.Remaining())
}

func TestCursor_Truncated(t *testing.T) {
	engine := GetLittleEndianEngine()

	t.Run("uint32 past end", func(t *testing.T) {
		c := NewCursor([]byte{1, 2, 3}, engine)
		_, err := c.Uint32()
		require.ErrorIs(t, err, errs.ErrTruncated)
		require.Equal(t, 0, c.Offset(), "failed read must not advance")
	})

	t.Run("units past end", func(t *testing.T) {
		c := NewCursor([]byte{1, 2, 3}, engine)
		_, err := c.Uint16s(2)
		require.ErrorIs(t, err, errs.ErrTruncated)
	})

	t.Run("huge declared count", func(t *testing.T) {
		c := NewCursor(make([]byte, 8), engine)
		_, err := c.Uint16s(1 << 30)
		require.ErrorIs(t, err, errs.ErrTruncated)
		_, err = c.Next(-1)
		require.ErrorIs(t, err, errs.ErrTruncated)
	})
}
