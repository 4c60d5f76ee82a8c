package approx

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/numeric"
	"github.com/arloliu/deepzoom/paged"
	"github.com/arloliu/deepzoom/reference"
)

// cyclePoint is a synthetic orbit that repeats every cycle iterations from
// iteration 1 on.
func cyclePoint(i, cycle uint64) (float64, float64) {
	if i == 0 {
		return 0, 0
	}
	m := float64((i - 1) % cycle)

	return 0.3 + 0.05*m, -0.2 + 0.03*m
}

// cycleReference stores the synthetic orbit in canonical form for the given
// period markers and orbit intervals.
func cycleReference(t *testing.T, cycle uint64, periods []uint64, ivs ...interval.Interval) *reference.Reference {
	t.Helper()

	set, err := interval.NewSet(ivs...)
	require.NoError(t, err)

	longest := periods[len(periods)-1]
	n := set.Compress(longest) + 1
	re, im := paged.NewDense[float64](n), paged.NewDense[float64](n)
	re.Resize(n)
	im.Resize(n)
	for i := uint64(0); i <= longest; i++ {
		if !set.IsIndependent(i) {
			continue
		}
		zr, zi := cyclePoint(i, cycle)
		re.Set(set.Compress(i), zr)
		im.Set(set.Compress(i), zi)
	}

	zero := numeric.NewBigComplex(0, 0, 64)
	ref, err := reference.Restore(reference.Snapshot{
		Center:       zero,
		Exp10:        12,
		Real:         re,
		Imag:         im,
		Intervals:    ivs,
		Period:       periods,
		FPGReference: zero,
		FPGBn:        zero,
	})
	require.NoError(t, err)

	return ref
}

func requireClose(t *testing.T, want, got complex128, msgAndArgs ...any) {
	t.Helper()
	tol := 1e-9 * max(1, cmplx.Abs(want))
	require.LessOrEqual(t, cmplx.Abs(want-got), tol, msgAndArgs...)
}

func skips[E Entry](entries []E) []uint64 {
	out := make([]uint64, len(entries))
	for i, e := range entries {
		out[i] = e.SkipCount()
	}

	return out
}
