// Package reference generates and holds the arbitrary-precision reference orbit
// that every pixel of a perturbation render is evaluated against.
//
// The orbit is stored as two paged float64 arrays indexed by canonical
// iteration. Repeated runs detected while iterating are collapsed into an
// interval.Set, and Real/Imag map a true iteration through it transparently.
package reference

import (
	"fmt"
	"slices"

	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/paged"
)

// Reference is an immutable reference orbit.
type Reference struct {
	center     *numeric.BigComplex
	exp10      int
	re, im     *paged.Dense[float64]
	compressor *interval.Set
	period     []uint64

	fpgReference *numeric.BigComplex
	fpgBn        *numeric.BigComplex
}

// Real returns the real part of z at true iteration i.
func (r *Reference) Real(i uint64) float64 {
	return r.re.At(r.compressor.Compress(i))
}

// Imag returns the imaginary part of z at true iteration i.
func (r *Reference) Imag(i uint64) float64 {
	return r.im.At(r.compressor.Compress(i))
}

// At returns both parts of z at true iteration i with a single index mapping.
func (r *Reference) At(i uint64) (float64, float64) {
	c := r.compressor.Compress(i)

	return r.re.At(c), r.im.At(c)
}

// Len returns the number of stored (canonical) orbit points.
func (r *Reference) Len() uint64 { return r.re.Len() }

// LongestPeriod returns the last period marker.
func (r *Reference) LongestPeriod() uint64 { return r.period[len(r.period)-1] }

// Period returns a copy of the ascending period markers.
func (r *Reference) Period() []uint64 { return slices.Clone(r.period) }

// Compressor returns the orbit's interval set. It must not be modified.
func (r *Reference) Compressor() *interval.Set { return r.compressor }

// Compressed returns the number of iterations removed from storage.
func (r *Reference) Compressed() uint64 { return r.compressor.TotalRange() }

// Center returns the orbit's c. It must not be modified.
func (r *Reference) Center() *numeric.BigComplex { return r.center }

// Exp10 returns the decimal precision the orbit was iterated with.
func (r *Reference) Exp10() int { return r.exp10 }

// FPGReference returns z at the iteration where the orbit stopped.
func (r *Reference) FPGReference() *numeric.BigComplex { return r.fpgReference }

// FPGBn returns the derivative accumulator at the iteration where the orbit stopped.
func (r *Reference) FPGBn() *numeric.BigComplex { return r.fpgBn }

// Snapshot is the exported state of a Reference. The archive package encodes
// it and Restore rebuilds a Reference from it.
type Snapshot struct {
	Center       *numeric.BigComplex
	Exp10        int
	Real, Imag   *paged.Dense[float64]
	Intervals    []interval.Interval
	Period       []uint64
	FPGReference *numeric.BigComplex
	FPGBn        *numeric.BigComplex
}

// Snapshot returns the state of r. The orbit arrays are shared, not copied.
func (r *Reference) Snapshot() Snapshot {
	return Snapshot{
		Center:       r.center,
		Exp10:        r.exp10,
		Real:         r.re,
		Imag:         r.im,
		Intervals:    r.compressor.Intervals(),
		Period:       r.Period(),
		FPGReference: r.fpgReference,
		FPGBn:        r.fpgBn,
	}
}

// Restore validates s and wraps it in a Reference.
func Restore(s Snapshot) (*Reference, error) {
	if s.Center == nil || s.FPGReference == nil || s.FPGBn == nil {
		return nil, fmt.Errorf("%w: missing center or fast-period-guess values", errs.ErrInvalidArchive)
	}
	if s.Real == nil || s.Imag == nil || s.Real.Len() != s.Imag.Len() || s.Real.Len() == 0 {
		return nil, fmt.Errorf("%w: orbit arrays are empty or differ in length", errs.ErrInvalidArchive)
	}
	if len(s.Period) == 0 {
		return nil, fmt.Errorf("%w: empty period list", errs.ErrInvalidArchive)
	}
	for k := 1; k < len(s.Period); k++ {
		if s.Period[k] <= s.Period[k-1] {
			return nil, fmt.Errorf("%w: period markers are not ascending", errs.ErrInvalidArchive)
		}
	}
	set, err := interval.NewSet(s.Intervals...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidArchive, err)
	}
	if last := s.Period[len(s.Period)-1]; set.Compress(last) >= s.Real.Len() {
		return nil, fmt.Errorf("%w: orbit shorter than its longest period", errs.ErrInvalidArchive)
	}

	return &Reference{
		center:       s.Center,
		exp10:        s.Exp10,
		re:           s.Real,
		im:           s.Imag,
		compressor:   set,
		period:       slices.Clone(s.Period),
		fpgReference: s.FPGReference,
		fpgBn:        s.FPGBn,
	}, nil
}
