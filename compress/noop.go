package compress

// NoOpCompressor passes payloads through unchanged. The returned slice shares
// memory with the input.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data as is.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data as is.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
