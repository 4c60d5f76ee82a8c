// Package hash wraps xxHash64 for archive checksums and reference fingerprints.
package hash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Sum computes the xxHash64 of data.
func Sum(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Fingerprint accumulates typed fields into one xxHash64 value. Every field is
// length- or width-delimited, so ("ab", "c") and ("a", "bc") differ.
type Fingerprint struct {
	d   *xxhash.Digest
	buf [8]byte
}

// NewFingerprint returns an empty fingerprint.
func NewFingerprint() *Fingerprint {
	return &Fingerprint{d: xxhash.New()}
}

// AddString adds s.
func (f *Fingerprint) AddString(s string) *Fingerprint {
	f.AddUint64(uint64(len(s)))
	_, _ = f.d.WriteString(s)

	return f
}

// AddUint64 adds v.
func (f *Fingerprint) AddUint64(v uint64) *Fingerprint {
	binary.LittleEndian.PutUint64(f.buf[:], v)
	_, _ = f.d.Write(f.buf[:])

	return f
}

// AddFloat64 adds the bit pattern of v.
func (f *Fingerprint) AddFloat64(v float64) *Fingerprint {
	return f.AddUint64(math.Float64bits(v))
}

// AddBool adds b.
func (f *Fingerprint) AddBool(b bool) *Fingerprint {
	if b {
		return f.AddUint64(1)
	}

	return f.AddUint64(0)
}

// Sum64 returns the fingerprint value.
func (f *Fingerprint) Sum64() uint64 {
	return f.d.Sum64()
}
