package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Decoders and encoders are reused; both run allocation free after warmup.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(true),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// ZstdCompressor compresses payloads as Zstandard frames.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd codec.
//
// Returns:
//   - ZstdCompressor: New Zstd codec instance
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// Compress encodes data into a single Zstandard frame.
//
// Uses a pooled zstd.Encoder with frame checksums enabled.
//
// Parameters:
//   - data: Payload to compress
//
// Returns:
//   - []byte: Zstandard frame
//   - error: Always nil; kept for the Compressor interface
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decodes a Zstandard frame produced by Compress.
//
// Parameters:
//   - data: Zstandard frame
//
// Returns:
//   - []byte: Decompressed payload (nil if input is empty)
//   - error: Decompression error for corrupt or foreign input
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	return decompressed, nil
}
