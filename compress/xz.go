package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// XZCompressor compresses payloads as xz streams (LZMA2).
type XZCompressor struct{}

var _ Codec = (*XZCompressor)(nil)

// NewXZCompressor creates an xz codec.
func NewXZCompressor() XZCompressor {
	return XZCompressor{}
}

// Compress encodes data as a complete xz stream.
//
// Parameters:
//   - data: Payload to compress
//
// Returns:
//   - []byte: xz stream, including header and index
//   - error: Writer error if any
func (c XZCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("xz compression failed: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("xz compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("xz compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress decodes an xz stream.
func (c XZCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xz decompression failed: %w", err)
	}

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("xz decompression failed: %w", err)
	}

	return out, nil
}
