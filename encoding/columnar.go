package encoding

import (
	"fmt"
	"iter"

	"github.com/arloliu/deepzoom/endian"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
)

// ColumnarEncoder appends values to a pooled buffer.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the encoded column. The slice is valid until the next
	// Write, WriteSlice or Finish and must not be modified.
	Bytes() []byte

	// Len returns the number of values written.
	Len() int

	// Size returns len(Bytes()).
	Size() int

	// Finish returns the buffer to its pool. The encoder must not be used
	// afterwards.
	Finish()

	Write(v T)
	WriteSlice(values []T)
}

// ColumnarDecoder reads a column produced by the matching encoder.
type ColumnarDecoder[T comparable] interface {
	// All yields the first count values of data. It stops early on
	// truncated or malformed input, so callers must count what they got.
	All(data []byte, count int) iter.Seq[T]

	// At returns the value at index, or false if index is out of range or
	// data is malformed.
	At(data []byte, index int, count int) (T, bool)
}

// NewNumericEncoder returns an encoder for the given column encoding.
func NewNumericEncoder(encoding format.EncodingType, engine endian.EndianEngine) (ColumnarEncoder[float64], error) {
	switch encoding {
	case format.EncodingRaw:
		return NewNumericRawEncoder(engine), nil
	case format.EncodingGorilla:
		return NewNumericGorillaEncoder(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidEncodingType, encoding)
	}
}

// NewNumericDecoder returns the decoder matching NewNumericEncoder.
func NewNumericDecoder(encoding format.EncodingType, engine endian.EndianEngine) (ColumnarDecoder[float64], error) {
	switch encoding {
	case format.EncodingRaw:
		return NewNumericRawDecoder(engine), nil
	case format.EncodingGorilla:
		return NewNumericGorillaDecoder(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidEncodingType, encoding)
	}
}
