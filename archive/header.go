package archive

import (
	"bytes"
	"fmt"

	"github.com/arloliu/deepzoom/endian"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
)

// Magic identifies a reference orbit archive.
var Magic = [4]byte{'D', 'Z', 'R', 'O'}

const (
	// Version is the archive layout written by Encode.
	Version = 1

	// HeaderSize is the fixed header size in bytes.
	HeaderSize = 32

	// ChecksumSize is the size of the trailing xxhash64.
	ChecksumSize = 8

	// BigEndianMask marks an archive whose multi-byte fields are big-endian.
	BigEndianMask = 0x01
)

// Header is the fixed-size section at the start of an archive.
type Header struct {
	Version     uint8                  // byte offset 4
	Options     uint8                  // byte offset 5
	Encoding    format.EncodingType    // byte offset 6
	Compression format.CompressionType // byte offset 7

	Exp10         uint32 // byte offset 8-11
	IntervalCount uint32 // byte offset 12-15
	PeriodCount   uint32 // byte offset 16-19
	PageCount     uint32 // byte offset 20-23
	OrbitLength   uint64 // byte offset 24-31
}

// IsBigEndian reports whether the archive is big-endian.
func (h Header) IsBigEndian() bool { return h.Options&BigEndianMask != 0 }

// Engine returns the byte order of the archive.
func (h Header) Engine() endian.EndianEngine { return endian.Select(h.IsBigEndian()) }

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic[:])
	b[4] = h.Version
	b[5] = h.Options
	b[6] = uint8(h.Encoding)
	b[7] = uint8(h.Compression)

	engine := h.Engine()
	engine.PutUint32(b[8:12], h.Exp10)
	engine.PutUint32(b[12:16], h.IntervalCount)
	engine.PutUint32(b[16:20], h.PeriodCount)
	engine.PutUint32(b[20:24], h.PageCount)
	engine.PutUint64(b[24:32], h.OrbitLength)

	return b
}

// Parse reads the header from the first HeaderSize bytes of data.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", errs.ErrInvalidArchive, HeaderSize, len(data))
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return errs.ErrInvalidMagicNumber
	}
	h.Version = data[4]
	if h.Version != Version {
		return fmt.Errorf("%w: %d", errs.ErrInvalidVersion, h.Version)
	}
	h.Options = data[5]
	h.Encoding = format.EncodingType(data[6])
	h.Compression = format.CompressionType(data[7])

	engine := h.Engine()
	h.Exp10 = engine.Uint32(data[8:12])
	h.IntervalCount = engine.Uint32(data[12:16])
	h.PeriodCount = engine.Uint32(data[16:20])
	h.PageCount = engine.Uint32(data[20:24])
	h.OrbitLength = engine.Uint64(data[24:32])

	return h.Validate()
}

// Validate checks the enum fields and counts.
func (h Header) Validate() error {
	switch h.Encoding {
	case format.EncodingRaw, format.EncodingGorilla:
	default:
		return fmt.Errorf("%w: %d", errs.ErrInvalidEncodingType, h.Encoding)
	}
	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: %d", errs.ErrInvalidCompressionType, h.Compression)
	}
	if h.Options&^BigEndianMask != 0 {
		return fmt.Errorf("%w: reserved option bits %#x", errs.ErrInvalidArchive, h.Options)
	}
	if h.Exp10 == 0 || h.OrbitLength == 0 || h.PeriodCount == 0 {
		return fmt.Errorf("%w: empty orbit", errs.ErrInvalidArchive)
	}

	return nil
}

// ParseHeader parses the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	var h Header
	if err := h.Parse(data); err != nil {
		return Header{}, err
	}

	return h, nil
}
