// Package encoding turns reference orbit page columns into bytes and back.
//
// Each archive page stores the real and the imaginary parts of up to 64Ki
// orbit points as two float64 columns. A column is encoded either raw
// (8 bytes per value in the archive byte order) or with Gorilla XOR
// compression, which pays off on orbits captured by a fixed point. The
// encoded column is then handed to a compress.Codec.
package encoding
