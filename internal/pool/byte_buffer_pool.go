package pool

import (
	"io"
	"sync"
)

const (
	BufferDefaultSize  = 1024 * 64       // 64KiB, fits a typical mod string table
	BufferMaxThreshold = 1024 * 1024 * 4 // 4MiB, larger buffers are not retained
)

// ByteBuffer is an append-only byte slice with an amortized growth strategy.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Clone returns a copy of the buffer contents that stays valid after the
// buffer is returned to the pool.
func (bb *ByteBuffer) Clone() []byte {
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

// Reset resets the buffer to be empty, but retains the allocated memory for reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Grow grows the buffer to ensure it can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by BufferDefaultSize; larger ones by 25% of their
// capacity, or by requiredBytes when that is more.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	growBy := BufferDefaultSize
	if cap(bb.B) > 4*BufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	growBy = max(growBy, requiredBytes)

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends the contents of data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteString appends s to the buffer.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// WriteByte appends c to the buffer.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a pool of ByteBuffers to minimize allocations.
//
// Buffers whose capacity exceeds maxThreshold are dropped instead of being
// returned to the pool.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
//
// Parameters:
//   - defaultSize: Initial capacity of new buffers
//   - maxThreshold: Capacity above which returned buffers are dropped (0 keeps all)
//
// Returns:
//   - *ByteBufferPool: New pool
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var defaultPool = NewByteBufferPool(BufferDefaultSize, BufferMaxThreshold)

// GetBuffer retrieves a ByteBuffer from the default pool.
func GetBuffer() *ByteBuffer {
	return defaultPool.Get()
}

// PutBuffer returns a ByteBuffer to the default pool.
func PutBuffer(bb *ByteBuffer) {
	defaultPool.Put(bb)
}
