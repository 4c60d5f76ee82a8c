package archive

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/arloliu/deepzoom/compress"
	"github.com/arloliu/deepzoom/encoding"
	"github.com/arloliu/deepzoom/endian"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/internal/hash"
	"github.com/arloliu/deepzoom/internal/options"
	"github.com/arloliu/deepzoom/internal/pool"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/reference"
)

type config struct {
	compression format.CompressionType
	encoding    format.EncodingType
	bigEndian   bool
}

// Option configures Encode.
type Option = options.Option[*config]

// WithCompression selects the page codec. The default is S2.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(c *config) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.compression = ct

		return nil
	})
}

// WithEncoding selects the column encoding. The default is raw.
func WithEncoding(et format.EncodingType) Option {
	return options.New(func(c *config) error {
		switch et {
		case format.EncodingRaw, format.EncodingGorilla:
			c.encoding = et
			return nil
		default:
			return fmt.Errorf("%w: %s", errs.ErrInvalidEncodingType, et)
		}
	})
}

// WithBigEndian writes multi-byte fields most significant byte first.
func WithBigEndian() Option {
	return options.NoError(func(c *config) { c.bigEndian = true })
}

// Encode serializes ref.
func Encode(ref *reference.Reference, opts ...Option) ([]byte, error) {
	cfg := &config{compression: format.CompressionS2, encoding: format.EncodingRaw}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, errs.ErrNoReference
	}
	snap := ref.Snapshot()
	rePages, imPages := snap.Real.Pages(), snap.Imag.Pages()
	if uint64(len(snap.Intervals)) > math.MaxUint32 || uint64(len(snap.Period)) > math.MaxUint32 || uint64(len(rePages)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: orbit too large to archive", errs.ErrInvalidArchive)
	}

	h := Header{
		Version:       Version,
		Encoding:      cfg.encoding,
		Compression:   cfg.compression,
		Exp10:         uint32(snap.Exp10),          //nolint:gosec // exp10 is positive
		IntervalCount: uint32(len(snap.Intervals)), //nolint:gosec // checked above
		PeriodCount:   uint32(len(snap.Period)),    //nolint:gosec // checked above
		PageCount:     uint32(len(rePages)),        //nolint:gosec // checked above
		OrbitLength:   snap.Real.Len(),
	}
	if cfg.bigEndian {
		h.Options |= BigEndianMask
	}
	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, err
	}

	buf := pool.GetArchiveBuffer()
	defer pool.PutArchiveBuffer(buf)

	_, _ = buf.Write(h.Bytes())
	w := writer{buf: buf, engine: h.Engine()}

	for _, z := range []*numeric.BigComplex{snap.Center, snap.FPGReference, snap.FPGBn} {
		re, im, err := z.MarshalParts()
		if err != nil {
			return nil, fmt.Errorf("encode big value: %w", err)
		}
		w.blob(re)
		w.blob(im)
	}
	for _, iv := range snap.Intervals {
		w.u64(iv.Rebase)
		w.u64(iv.Start)
		w.u64(iv.End)
	}
	for _, p := range snap.Period {
		w.u64(p)
	}
	for p := range rePages {
		w.u32(uint32(len(rePages[p]))) //nolint:gosec // at most one page
		for _, column := range [][]float64{rePages[p], imPages[p]} {
			if err := w.column(column, h.Encoding, codec); err != nil {
				return nil, fmt.Errorf("encode page %d: %w", p, err)
			}
		}
	}
	w.u64(hash.Sum(buf.Bytes()))

	return bytes.Clone(buf.Bytes()), nil
}

// Write encodes ref and writes it to out.
func Write(out io.Writer, ref *reference.Reference, opts ...Option) (int64, error) {
	data, err := Encode(ref, opts...)
	if err != nil {
		return 0, err
	}
	n, err := out.Write(data)

	return int64(n), err
}

type writer struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
}

func (w writer) u32(v uint32) { w.buf.B = w.engine.AppendUint32(w.buf.B, v) }

func (w writer) u64(v uint64) { w.buf.B = w.engine.AppendUint64(w.buf.B, v) }

func (w writer) blob(b []byte) {
	w.u32(uint32(len(b))) //nolint:gosec // blobs are far below 4GiB
	_, _ = w.buf.Write(b)
}

// column encodes and compresses values into the archive. The compressed
// bytes may alias the encoder buffer, so they are copied before Finish.
func (w writer) column(values []float64, et format.EncodingType, codec compress.Codec) error {
	enc, err := encoding.NewNumericEncoder(et, w.engine)
	if err != nil {
		return err
	}
	defer enc.Finish()

	enc.WriteSlice(values)
	compressed, err := codec.Compress(enc.Bytes())
	if err != nil {
		return err
	}
	w.blob(compressed)

	return nil
}
