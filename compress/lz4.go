package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4MaxOutput bounds the decompression buffer for a single payload.
const lz4MaxOutput = 64 * 1024 * 1024

// LZ4Compressor compresses payloads as raw LZ4 blocks.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 codec.
//
// Returns:
//   - LZ4Compressor: New LZ4 codec instance
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress encodes data as one LZ4 block.
//
// Uses a pooled lz4.Compressor.
//
// Parameters:
//   - data: Payload to compress
//
// Returns:
//   - []byte: Compressed block (nil if input is empty)
//   - error: Compression error, including a block lz4 could not encode
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}

	// dst is sized to the block bound, so 0 here means lz4 gave up.
	if n == 0 {
		return nil, fmt.Errorf("lz4 compression failed: incompressible payload of %d bytes", len(data))
	}

	return dst[:n], nil
}

// Decompress decodes an LZ4 block. The raw block format does not carry the
// original size, so the output buffer starts at four times the input and
// doubles until it fits or reaches lz4MaxOutput.
//
// Parameters:
//   - data: Compressed block
//
// Returns:
//   - []byte: Decompressed payload (nil if input is empty)
//   - error: lz4.ErrInvalidSourceShortBuffer past lz4MaxOutput, or other decompression errors
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	for bufSize := max(len(data)*4, 64); bufSize <= lz4MaxOutput; bufSize *= 2 {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
	}

	return nil, fmt.Errorf("lz4 decompression failed: %w", lz4.ErrInvalidSourceShortBuffer)
}
