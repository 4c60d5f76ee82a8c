package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/paged"
	"github.com/arloliu/deepzoom/reference"
	"github.com/arloliu/deepzoom/renderstate"
)

func generate(t *testing.T, re string, maxIteration uint64, compression attr.ReferenceCompression) *reference.Reference {
	t.Helper()
	f := attr.Default()
	f.CenterRe, f.CenterIm = re, "0"
	f.MaxIteration = maxIteration
	f.ReferenceCompression = compression

	ref, err := reference.Generate(renderstate.Never(), f)
	require.NoError(t, err)

	return ref
}

func requireSameReference(t *testing.T, want, got *reference.Reference, iterations uint64) {
	t.Helper()
	require.Equal(t, want.Len(), got.Len())
	require.Equal(t, want.Exp10(), got.Exp10())
	require.Equal(t, want.Period(), got.Period())
	require.Equal(t, want.Compressor().Intervals(), got.Compressor().Intervals())
	require.Zero(t, want.Center().Real().Cmp(got.Center().Real()))
	require.Zero(t, want.Center().Imag().Cmp(got.Center().Imag()))
	require.Zero(t, want.FPGReference().Real().Cmp(got.FPGReference().Real()))
	require.Zero(t, want.FPGBn().Imag().Cmp(got.FPGBn().Imag()))
	for i := range iterations {
		wr, wi := want.At(i)
		gr, gi := got.At(i)
		if wr != gr || wi != gi {
			require.Failf(t, "orbit differs", "iteration %d: (%v, %v) != (%v, %v)", i, wr, wi, gr, gi)
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	ref := generate(t, "-1", 100, attr.ReferenceCompression{Criteria: 4, WithoutNormalize: true})
	require.Positive(t, ref.Compressed())

	compressions := []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4}
	for _, ct := range compressions {
		for _, et := range []format.EncodingType{format.EncodingRaw, format.EncodingGorilla} {
			for _, big := range []bool{false, true} {
				opts := []Option{WithCompression(ct), WithEncoding(et)}
				if big {
					opts = append(opts, WithBigEndian())
				}
				data, err := Encode(ref, opts...)
				require.NoError(t, err)

				h, err := ParseHeader(data)
				require.NoError(t, err)
				require.Equal(t, ct, h.Compression)
				require.Equal(t, et, h.Encoding)
				require.Equal(t, big, h.IsBigEndian())

				got, err := Decode(data)
				require.NoError(t, err, "%s/%s/big=%v", ct, et, big)
				requireSameReference(t, ref, got, 101)
			}
		}
	}
}

func TestEncodeDecode_MultiplePages(t *testing.T) {
	// c = 1/4 creeps towards z = 1/2 and never escapes
	const maxIteration = 2*paged.PageSize + 1234
	ref := generate(t, "0.25", maxIteration, attr.ReferenceCompression{})
	require.Equal(t, uint64(maxIteration+1), ref.Len())

	data, err := Encode(ref, WithCompression(format.CompressionZstd), WithEncoding(format.EncodingGorilla))
	require.NoError(t, err)
	h, err := ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, uint32(3), h.PageCount)
	require.Equal(t, ref.Len(), h.OrbitLength)

	got, err := Decode(data)
	require.NoError(t, err)
	requireSameReference(t, ref, got, maxIteration+1)
}

func TestWriteRead(t *testing.T) {
	ref := generate(t, "-1", 100, attr.ReferenceCompression{Criteria: 4, WithoutNormalize: true})

	var buf bytes.Buffer
	n, err := Write(&buf, ref, WithCompression(format.CompressionLZ4))
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	got, err := Read(&buf)
	require.NoError(t, err)
	requireSameReference(t, ref, got, 101)
}

func TestDecode_Corrupted(t *testing.T) {
	ref := generate(t, "-1", 100, attr.ReferenceCompression{Criteria: 4, WithoutNormalize: true})
	data, err := Encode(ref)
	require.NoError(t, err)

	mutate := func(fn func(b []byte) []byte) []byte {
		return fn(bytes.Clone(data))
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"flipped body byte", mutate(func(b []byte) []byte { b[HeaderSize+5] ^= 0xFF; return b }), errs.ErrChecksumMismatch},
		{"flipped checksum", mutate(func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }), errs.ErrChecksumMismatch},
		{"truncated body", data[:len(data)-20], errs.ErrChecksumMismatch},
		{"bad magic", mutate(func(b []byte) []byte { b[0] = 'X'; return b }), errs.ErrInvalidMagicNumber},
		{"bad version", mutate(func(b []byte) []byte { b[4] = 9; return b }), errs.ErrInvalidVersion},
		{"bad compression", mutate(func(b []byte) []byte { b[7] = 0x7F; return b }), errs.ErrInvalidCompressionType},
		{"bad encoding", mutate(func(b []byte) []byte { b[6] = 0; return b }), errs.ErrInvalidEncodingType},
		{"reserved option", mutate(func(b []byte) []byte { b[5] = 0x80; return b }), errs.ErrInvalidArchive},
		{"header only", data[:HeaderSize], errs.ErrInvalidArchive},
		{"short header", data[:10], errs.ErrInvalidArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncode_InvalidOptions(t *testing.T) {
	ref := generate(t, "0", 10, attr.ReferenceCompression{})

	_, err := Encode(ref, WithCompression(format.CompressionType(0)))
	require.ErrorIs(t, err, errs.ErrInvalidCompressionType)
	_, err = Encode(ref, WithEncoding(format.EncodingType(7)))
	require.ErrorIs(t, err, errs.ErrInvalidEncodingType)
	_, err = Encode(nil)
	require.ErrorIs(t, err, errs.ErrNoReference)
}

func TestHeader_BytesParse(t *testing.T) {
	for _, options := range []uint8{0, BigEndianMask} {
		h := Header{
			Version:       Version,
			Options:       options,
			Encoding:      format.EncodingGorilla,
			Compression:   format.CompressionZstd,
			Exp10:         312,
			IntervalCount: 3,
			PeriodCount:   5,
			PageCount:     2,
			OrbitLength:   70000,
		}
		b := h.Bytes()
		require.Len(t, b, HeaderSize)
		require.Equal(t, Magic[:], b[:4])

		got, err := ParseHeader(b)
		require.NoError(t, err)
		require.Equal(t, h, got)
	}
}
