package approx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/numeric"
)

func TestLightGenerator_MergeEqualsStepping(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	s := NewLightStrategy(ref, 1e-3, 1e-12)

	head := s.NewGenerator(1)
	for range 6 {
		head.Step()
	}
	tail := s.NewGenerator(7)
	for range 4 {
		tail.Step()
	}
	whole := s.NewGenerator(1)
	for range 10 {
		whole.Step()
	}
	head.Merge(tail.Build())

	got, want := head.Build(), whole.Build()
	require.Equal(t, uint64(10), got.Skip)
	require.Equal(t, uint64(1), head.Start())
	requireClose(t, want.A(), got.A())
	requireClose(t, want.B(), got.B())
	require.Greater(t, got.Radius, 0.0)
	require.InEpsilon(t, want.Radius, got.Radius, 0.05)
}

func TestLightGenerator_RadiusShrinks(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	g := NewLightStrategy(ref, 1e-3, 1e-12).NewGenerator(1)

	prev := g.Build().Radius
	for range 14 {
		g.Step()
		r := g.Build().Radius
		require.LessOrEqual(t, r, prev)
		require.GreaterOrEqual(t, r, 0.0)
		prev = r
	}
	require.Equal(t, uint64(14), g.Skip())
}

func TestLightGenerator_FirstStep(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	g := NewLightStrategy(ref, 1e-3, 0).NewGenerator(1)
	g.Step()

	zr, zi := ref.At(1)
	pa := g.Build()
	requireClose(t, complex(2*zr, 2*zi), pa.A())
	requireClose(t, 1, pa.B())
	require.InEpsilon(t, 1e-3*numeric.HypotApprox(2*zr, 2*zi), pa.Radius, 1e-12)
}

func TestDeepGenerator_MatchesLight(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	light := NewLightStrategy(ref, 1e-3, 1e-12).NewGenerator(3)
	deep := NewDeepStrategy(ref, 1e-3, numeric.NewFloatExp(1e-12)).NewGenerator(3)
	for range 9 {
		light.Step()
		deep.Step()
	}
	lp, dp := light.Build(), deep.Build()
	require.Equal(t, lp.Skip, dp.Skip)
	requireClose(t, lp.A(), dp.A.Complex128())
	requireClose(t, lp.B(), dp.B.Complex128())
	require.InEpsilon(t, lp.Radius, dp.Radius.Float64(), 1e-9)
}

func TestDeepGenerator_MergeEqualsStepping(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	s := NewDeepStrategy(ref, 1e-3, numeric.Exp10(-400))

	head := s.NewGenerator(1)
	head.Step()
	head.Step()
	tail := s.NewGenerator(3)
	for range 5 {
		tail.Step()
	}
	whole := s.NewGenerator(1)
	for range 7 {
		whole.Step()
	}
	head.Merge(tail.Build())

	got, want := head.Build(), whole.Build()
	require.Equal(t, uint64(7), got.Skip)
	requireClose(t, want.A.Complex128(), got.A.Complex128())
	requireClose(t, want.B.Complex128(), got.B.Complex128())
	require.Positive(t, got.Radius.Sign())
}
