package encoding

import (
	"encoding/binary"
	"iter"
	"math"
	"math/bits"

	"github.com/arloliu/deepzoom/internal/pool"
)

// Gorilla stream layout, MSB first:
//
//	first value: 64 raw bits
//	then per value:
//	  0                              same as previous
//	  1 0 <meaningful bits>          XOR fits the previous block
//	  1 1 <6 leading> <6 size-1> <meaningful bits>
//
// Leading zeros use 6 bits so no clamping is needed.

// NumericGorillaEncoder XORs each value with its predecessor and stores only
// the meaningful bits. Repeated values cost a single bit each.
type NumericGorillaEncoder struct {
	buf   *pool.ByteBuffer
	count int

	prev         uint64
	prevLeading  int
	prevTrailing int
	prevSize     int

	acc   uint64 // pending bits, right-aligned
	nbits int
}

var _ ColumnarEncoder[float64] = (*NumericGorillaEncoder)(nil)

// NewNumericGorillaEncoder returns an encoder backed by a pooled column buffer.
func NewNumericGorillaEncoder() *NumericGorillaEncoder {
	return &NumericGorillaEncoder{buf: pool.GetColumnBuffer()}
}

func (e *NumericGorillaEncoder) Write(val float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	e.writeValue(math.Float64bits(val))
}

func (e *NumericGorillaEncoder) WriteSlice(values []float64) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	for _, v := range values {
		e.writeValue(math.Float64bits(v))
	}
}

func (e *NumericGorillaEncoder) writeValue(v uint64) {
	e.count++
	if e.count == 1 {
		e.prev = v
		e.writeBits(v, 64)

		return
	}

	xor := v ^ e.prev
	e.prev = v
	if xor == 0 {
		e.writeBits(0, 1)
		return
	}

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)
	if e.prevSize > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBits(0b10, 2)
		e.writeBits(xor>>e.prevTrailing, e.prevSize)

		return
	}

	size := 64 - leading - trailing
	e.writeBits(0b11, 2)
	e.writeBits(uint64(leading), 6) //nolint:gosec // 0..63
	e.writeBits(uint64(size-1), 6)  //nolint:gosec // 0..63
	e.writeBits(xor>>trailing, size)
	e.prevLeading, e.prevTrailing, e.prevSize = leading, trailing, size
}

// writeBits appends the low n bits of v, 1 <= n <= 64.
func (e *NumericGorillaEncoder) writeBits(v uint64, n int) {
	for n > 0 {
		take := min(n, 64-e.nbits)
		chunk := v >> (n - take)
		if take < 64 {
			chunk &= 1<<take - 1
		}
		e.acc = e.acc<<take | chunk
		e.nbits += take
		n -= take
		if e.nbits == 64 {
			binary.BigEndian.PutUint64(e.buf.ExtendOrGrow(8), e.acc)
			e.acc, e.nbits = 0, 0
		}
	}
}

// Bytes returns the stream including the pending partial word. The pending
// bytes are written past Len and are overwritten by later writes.
func (e *NumericGorillaEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}
	n := e.buf.Len()
	if e.nbits == 0 {
		return e.buf.Bytes()
	}
	pending := (e.nbits + 7) / 8
	e.buf.Grow(8)
	tail := e.buf.Slice(n, n+8)
	binary.BigEndian.PutUint64(tail, e.acc<<(64-e.nbits))

	return e.buf.Slice(0, n+pending)
}

func (e *NumericGorillaEncoder) Len() int { return e.count }

func (e *NumericGorillaEncoder) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len() + (e.nbits+7)/8
}

func (e *NumericGorillaEncoder) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
}

// NumericGorillaDecoder reads columns written by NumericGorillaEncoder.
type NumericGorillaDecoder struct{}

var _ ColumnarDecoder[float64] = NumericGorillaDecoder{}

func NewNumericGorillaDecoder() NumericGorillaDecoder {
	return NumericGorillaDecoder{}
}

func (d NumericGorillaDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		s := gorillaState{r: bitReader{data: data}}
		for range count {
			v, ok := s.next()
			if !ok || !yield(math.Float64frombits(v)) {
				return
			}
		}
	}
}

func (d NumericGorillaDecoder) At(data []byte, index int, count int) (float64, bool) {
	if index < 0 || index >= count {
		return 0, false
	}
	s := gorillaState{r: bitReader{data: data}}
	for range index {
		if _, ok := s.next(); !ok {
			return 0, false
		}
	}
	v, ok := s.next()

	return math.Float64frombits(v), ok
}

type gorillaState struct {
	r        bitReader
	started  bool
	prev     uint64
	trailing int
	size     int
}

func (s *gorillaState) next() (uint64, bool) {
	if !s.started {
		v, ok := s.r.readBits(64)
		s.prev, s.started = v, ok

		return v, ok
	}
	changed, ok := s.r.readBits(1)
	if !ok {
		return 0, false
	}
	if changed == 0 {
		return s.prev, true
	}
	fresh, ok := s.r.readBits(1)
	if !ok {
		return 0, false
	}
	if fresh == 1 {
		leading, ok1 := s.r.readBits(6)
		size, ok2 := s.r.readBits(6)
		if !ok1 || !ok2 {
			return 0, false
		}
		s.size = int(size) + 1
		s.trailing = 64 - int(leading) - s.size
		if s.trailing < 0 {
			return 0, false
		}
	} else if s.size == 0 {
		return 0, false
	}
	meaningful, ok := s.r.readBits(s.size)
	if !ok {
		return 0, false
	}
	s.prev ^= meaningful << s.trailing

	return s.prev, true
}

type bitReader struct {
	data []byte
	pos  int // bit offset
}

// readBits reads n bits MSB first, 1 <= n <= 64.
func (r *bitReader) readBits(n int) (uint64, bool) {
	if r.pos+n > len(r.data)*8 {
		return 0, false
	}
	var v uint64
	for n > 0 {
		off := r.pos & 7
		avail := 8 - off
		take := min(avail, n)
		b := uint64(r.data[r.pos>>3]) >> (avail - take) & (1<<take - 1)
		v = v<<take | b
		r.pos += take
		n -= take
	}

	return v, true
}
