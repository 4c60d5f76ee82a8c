package archive

import (
	"fmt"
	"io"

	"github.com/arloliu/deepzoom/compress"
	"github.com/arloliu/deepzoom/encoding"
	"github.com/arloliu/deepzoom/endian"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/internal/hash"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/paged"
	"github.com/arloliu/deepzoom/reference"
)

// Decode verifies and parses an archive produced by Encode.
func Decode(data []byte) (*reference.Reference, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < HeaderSize+ChecksumSize {
		return nil, fmt.Errorf("%w: missing checksum", errs.ErrInvalidArchive)
	}
	engine := h.Engine()
	body := data[:len(data)-ChecksumSize]
	if hash.Sum(body) != engine.Uint64(data[len(body):]) {
		return nil, errs.ErrChecksumMismatch
	}

	r := &reader{data: body, off: HeaderSize, engine: engine}
	center := r.bigComplex()
	fpgReference := r.bigComplex()
	fpgBn := r.bigComplex()

	intervals := make([]interval.Interval, 0, min(int(h.IntervalCount), r.remaining()/24))
	for range h.IntervalCount {
		iv := interval.Interval{Rebase: r.u64(), Start: r.u64(), End: r.u64()}
		if r.err != nil {
			break
		}
		intervals = append(intervals, iv)
	}
	periods := make([]uint64, 0, min(int(h.PeriodCount), r.remaining()/8))
	for range h.PeriodCount {
		p := r.u64()
		if r.err != nil {
			break
		}
		periods = append(periods, p)
	}
	if r.err != nil {
		return nil, r.err
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, err
	}
	decoder, err := encoding.NewNumericDecoder(h.Encoding, engine)
	if err != nil {
		return nil, err
	}
	if uint64(h.PageCount) != (h.OrbitLength+paged.PageMask)>>paged.PageBits {
		return nil, fmt.Errorf("%w: %d pages for %d points", errs.ErrInvalidArchive, h.PageCount, h.OrbitLength)
	}
	re := paged.NewDense[float64](h.OrbitLength)
	im := paged.NewDense[float64](h.OrbitLength)
	for p := range h.PageCount {
		n := int(r.u32())
		if r.err == nil && (n == 0 || n > paged.PageSize) {
			return nil, fmt.Errorf("%w: page %d holds %d points", errs.ErrInvalidArchive, p, n)
		}
		for _, dst := range []*paged.Dense[float64]{re, im} {
			if err := r.column(dst, n, codec, decoder); err != nil {
				return nil, fmt.Errorf("decode page %d: %w", p, err)
			}
		}
	}
	if re.Len() != h.OrbitLength {
		return nil, fmt.Errorf("%w: %d points, header says %d", errs.ErrInvalidArchive, re.Len(), h.OrbitLength)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errs.ErrInvalidArchive, r.remaining())
	}

	return reference.Restore(reference.Snapshot{
		Center:       center,
		Exp10:        int(h.Exp10),
		Real:         re,
		Imag:         im,
		Intervals:    intervals,
		Period:       periods,
		FPGReference: fpgReference,
		FPGBn:        fpgBn,
	})
}

// Read reads an archive from in and decodes it.
func Read(in io.Reader) (*reference.Reference, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	return Decode(data)
}

// reader is a bounds-checked cursor. The first failure sticks in err and
// turns later reads into no-ops.
type reader struct {
	data   []byte
	off    int
	engine endian.EndianEngine
	err    error
}

func (r *reader) remaining() int { return len(r.data) - r.off }

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining() {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d", errs.ErrInvalidArchive, n, r.off)
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	return b
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}

	return r.engine.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}

	return r.engine.Uint64(b)
}

func (r *reader) blob() []byte {
	n := r.u32()
	if r.err != nil {
		return nil
	}

	return r.take(int(n))
}

func (r *reader) bigComplex() *numeric.BigComplex {
	re, im := r.blob(), r.blob()
	if r.err != nil {
		return nil
	}
	z, err := numeric.UnmarshalBigComplex(re, im)
	if err != nil {
		r.err = fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
		return nil
	}

	return z
}

func (r *reader) column(dst *paged.Dense[float64], n int, codec compress.Codec, decoder encoding.ColumnarDecoder[float64]) error {
	payload := r.blob()
	if r.err != nil {
		return r.err
	}
	raw, err := codec.Decompress(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}
	got := 0
	for v := range decoder.All(raw, n) {
		dst.Push(v)
		got++
	}
	if got != n {
		return fmt.Errorf("%w: column holds %d of %d points", errs.ErrInvalidArchive, got, n)
	}

	return nil
}
