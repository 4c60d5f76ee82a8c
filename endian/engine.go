// Package endian selects the byte order of reference archives.
//
// EndianEngine combines binary.ByteOrder and binary.AppendByteOrder so that
// encoders can both patch fixed offsets and append:
//
//	engine := endian.Select(bigEndian)
//	buf = engine.AppendUint64(buf, math.Float64bits(re))
//
// Archives are little-endian unless the big-endian header flag is set.
package endian

import "encoding/binary"

// EndianEngine is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Select returns the big-endian engine if bigEndian is set, else the
// little-endian one.
func Select(bigEndian bool) EndianEngine {
	if bigEndian {
		return GetBigEndianEngine()
	}

	return GetLittleEndianEngine()
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	var b [2]byte
	engine.PutUint16(b[:], 0x0102)

	return b[0] == 0x01
}
