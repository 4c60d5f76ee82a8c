package compress

// NoOpCompressor passes data through unchanged. Archives written with
// format.CompressionNone use it.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor returns a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data without copying it.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data without copying it.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
