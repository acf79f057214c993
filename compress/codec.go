package compress

import (
	"fmt"

	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/format"
)

// Compressor compresses an extra-data payload.
//
// The returned slice is owned by the caller; the input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm. Corrupt input or
// input produced by a different algorithm yields an error.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of one algorithm.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
	format.CompressionXZ:   NewXZCompressor(),
}

// GetCodec returns the shared built-in Codec for compressionType. Built-in
// codecs are stateless and safe for concurrent use.
//
// Parameters:
//   - compressionType: Algorithm recorded in the extra-data sidecar
//
// Returns:
//   - Codec: Shared codec for the algorithm
//   - error: Wraps errs.ErrUnsupportedCompression for unknown types
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Stats summarizes the effect of compressing a set of payloads.
type Stats struct {
	Algorithm      format.CompressionType
	Payloads       int
	OriginalSize   int64
	CompressedSize int64
}

// Add records one payload of the given sizes.
func (s *Stats) Add(original, compressed int) {
	s.Payloads++
	s.OriginalSize += int64(original)
	s.CompressedSize += int64(compressed)
}

// Ratio returns compressed size over original size, or 0 when nothing was recorded.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}
