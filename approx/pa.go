package approx

import "github.com/arloliu/deepzoom/numeric"

// Entry is implemented by the PA entry types of both precision tiers.
type Entry interface {
	LightPA | DeepPA
	SkipCount() uint64
}

// LightPA is a float64 PA entry.
type LightPA struct {
	Anr, Ani float64
	Bnr, Bni float64
	Radius   float64
	Skip     uint64
}

// SkipCount returns the number of iterations the entry replaces.
func (pa LightPA) SkipCount() uint64 { return pa.Skip }

// A returns the dz coefficient.
func (pa LightPA) A() complex128 { return complex(pa.Anr, pa.Ani) }

// B returns the dc coefficient.
func (pa LightPA) B() complex128 { return complex(pa.Bnr, pa.Bni) }

// DeepPA is an extended-range PA entry.
type DeepPA struct {
	A, B   numeric.ComplexExp
	Radius numeric.FloatExp
	Skip   uint64
}

// SkipCount returns the number of iterations the entry replaces.
func (pa DeepPA) SkipCount() uint64 { return pa.Skip }
