package compress

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCompressor(),
		"LZ4":  NewLZ4Compressor(),
		"S2":   NewS2Compressor(),
		"Zstd": NewZstdCompressor(),
	}
}

// orbitPage returns n float64 points of a period-cycle orbit, encoded
// little-endian the way archive pages are.
func orbitPage(n, cycle int) []byte {
	buf := make([]byte, 0, n*8)
	for i := range n {
		m := float64(i % cycle)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(0.3+0.05*m))
	}

	return buf
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := CreateCodec(ct, "orbit")
		require.NoError(t, err, ct.String())
		require.NotNil(t, codec)

		shared, err := GetCodec(ct)
		require.NoError(t, err)
		require.IsType(t, shared, codec)
	}

	_, err := CreateCodec(format.CompressionType(0x7f), "orbit")
	require.ErrorIs(t, err, errs.ErrInvalidCompressionType)
	require.Contains(t, err.Error(), "orbit")

	_, err = GetCodec(format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrInvalidCompressionType)
}

func TestAllCodecs_EmptyData(t *testing.T) {
	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			require.Nil(t, compressed)

			decompressed, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Nil(t, decompressed)

			compressed, err = codec.Compress([]byte{})
			require.NoError(t, err)
			decompressed, err = codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"single_byte", []byte{0x42}},
		{"binary_data", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{"short_page", orbitPage(100, 7)},
		{"full_page_periodic", orbitPage(1<<16, 13)},
		{"full_page_long_cycle", orbitPage(1<<16, 40000)},
		{"zeros", make([]byte, 1<<20)},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed, err := codec.Compress(tc.data)
					require.NoError(t, err)
					require.NotNil(t, compressed)

					decompressed, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.True(t, bytes.Equal(tc.data, decompressed))
				})
			}
		})
	}
}

func TestAllCodecs_ShrinkPeriodicPages(t *testing.T) {
	page := orbitPage(1<<16, 13)
	for name, codec := range getAllCodecs() {
		if name == "NoOp" {
			continue
		}
		compressed, err := codec.Compress(page)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(page)/10, name)
	}
}

func TestS2Compressor_PlainBlock(t *testing.T) {
	page := orbitPage(1<<16, 7)
	compressed, err := NewS2Compressor().Compress(page)
	require.NoError(t, err)

	decoded, err := s2.Decode(nil, compressed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(page, decoded))
}

func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{"random_bytes", []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"text_as_compressed", []byte("this is not compressed data")},
		{"corrupted_header", []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}},
	}

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			for _, input := range invalidInputs {
				_, err := codec.Decompress(input.data)
				require.Error(t, err, input.name)
			}
		})
	}
}

func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 16
	page := orbitPage(4096, 11)

	for name, codec := range getAllCodecs() {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			failures := make(chan string, numGoroutines)
			for range numGoroutines {
				wg.Add(1)
				go func() {
					defer wg.Done()
					compressed, err := codec.Compress(page)
					if err != nil {
						failures <- err.Error()
						return
					}
					out, err := codec.Decompress(compressed)
					if err != nil {
						failures <- err.Error()
						return
					}
					if !bytes.Equal(page, out) {
						failures <- "round trip mismatch"
					}
				}()
			}
			wg.Wait()
			close(failures)
			for msg := range failures {
				t.Error(msg)
			}
		})
	}
}

func BenchmarkAllCodecs_Compress(b *testing.B) {
	page := orbitPage(1<<16, 1000)
	for name, codec := range getAllCodecs() {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(page)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := codec.Compress(page); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkAllCodecs_Decompress(b *testing.B) {
	page := orbitPage(1<<16, 1000)
	for name, codec := range getAllCodecs() {
		compressed, err := codec.Compress(page)
		if err != nil {
			b.Fatal(err)
		}
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(page)))
			b.ReportAllocs()
			for b.Loop() {
				if _, err := codec.Decompress(compressed); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
