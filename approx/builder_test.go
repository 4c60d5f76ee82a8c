package approx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/diag"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/reference"
	"github.com/arloliu/deepzoom/renderstate"
)

const testDCMax = 1e-12

func buildLight(t *testing.T, ref *reference.Reference, method format.MPACompressionMethod, opts ...Option) *Table[LightPA] {
	t.Helper()
	table, err := BuildLight(renderstate.Never(), ref, testSettings(method), testDCMax, NewTableCache(), opts...)
	require.NoError(t, err)
	require.True(t, table.Valid())
	require.Equal(t, method, table.Method())

	return table
}

func TestBuild_EmptyHierarchy(t *testing.T) {
	ref := cycleReference(t, 3, []uint64{3})
	table := buildLight(t, ref, format.Strongest)

	require.Nil(t, table.Hierarchy())
	require.Zero(t, table.Len())
	_, ok := table.Lookup(1)
	require.False(t, ok)
}

func TestBuild_NoCompressionLayout(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	table := buildLight(t, ref, format.NoCompression)

	require.Equal(t, uint64(14), table.Len())
	want := map[uint64][]uint64{
		1:  {14, 6, 2},
		5:  {2},
		9:  {6, 2},
		13: {2},
	}
	for it := uint64(0); it <= 16; it++ {
		entries, ok := table.Lookup(it)
		if w, exists := want[it]; exists {
			require.True(t, ok, "iteration %d", it)
			require.Equal(t, w, skips(entries), "iteration %d", it)
			for _, e := range entries {
				require.Greater(t, e.Radius, 0.0)
			}
		} else {
			require.False(t, ok, "iteration %d", it)
		}
	}
}

func TestBuild_LittleCompressionLayout(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	table := buildLight(t, ref, format.LittleCompression)

	require.Equal(t, uint64(4), table.Len())
	for it, idx := range map[uint64]uint64{1: 0, 5: 1, 9: 2, 13: 3} {
		got, ok := table.CompIndex(it)
		require.True(t, ok)
		require.Equal(t, idx, got)
	}
	require.Zero(t, table.PulledCompressor().Len())
}

func requireSameEntries(t *testing.T, want, got []LightPA, it uint64) {
	t.Helper()
	require.Equal(t, skips(want), skips(got), "iteration %d", it)
	for k := range want {
		requireClose(t, want[k].A(), got[k].A(), "iteration %d level %d", it, k)
		requireClose(t, want[k].B(), got[k].B(), "iteration %d level %d", it, k)
		require.InEpsilon(t, want[k].Radius, got[k].Radius, 0.05, "iteration %d level %d", it, k)
	}
}

func TestBuild_StrongestClonesRepeatedBlocks(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16}, interval.Interval{Rebase: 1, Start: 9, End: 16})
	var rec diag.Recorder

	plain := buildLight(t, ref, format.NoCompression)
	strong := buildLight(t, ref, format.Strongest, WithDiagnostics(&rec))

	require.Zero(t, rec.Count(diag.CodeCloneRejected))
	require.Zero(t, rec.Count(diag.CodeIntervalDropped))
	require.Equal(t, []interval.Interval{{Rebase: 1, Start: 3, End: 3}}, strong.PulledCompressor().Intervals())
	require.Equal(t, uint64(3), strong.Len())

	for it := uint64(1); it <= 16; it++ {
		want, okWant := plain.Lookup(it)
		got, okGot := strong.Lookup(it)
		require.Equal(t, okWant, okGot, "iteration %d", it)
		if okWant {
			requireSameEntries(t, want, got, it)
		}
	}
}

func TestBuild_StrongestRejectsMisalignedClone(t *testing.T) {
	ref := cycleReference(t, 4, []uint64{4, 8, 16}, interval.Interval{Rebase: 1, Start: 5, End: 12})
	var rec diag.Recorder

	table := buildLight(t, ref, format.Strongest, WithDiagnostics(&rec))
	require.Equal(t, 1, rec.Count(diag.CodeCloneRejected))

	entries, ok := table.Lookup(1)
	require.True(t, ok)
	require.Equal(t, []uint64{14, 6, 2}, skips(entries))
	entries, ok = table.Lookup(13)
	require.True(t, ok)
	require.Equal(t, []uint64{2}, skips(entries))
}

func TestBuild_DropsIntervalsWithoutLevel(t *testing.T) {
	ref := cycleReference(t, 3, []uint64{4, 8, 16}, interval.Interval{Rebase: 1, Start: 4, End: 9})
	var rec diag.Recorder

	table := buildLight(t, ref, format.Strongest, WithDiagnostics(&rec))
	require.Equal(t, 1, rec.Count(diag.CodeIntervalDropped))
	require.Zero(t, table.PulledCompressor().Len())
}

func TestBuild_CompressionMethodsAgreeOnGeneratedOrbit(t *testing.T) {
	f := attr.Default()
	f.CenterRe, f.CenterIm = "-0.1", "0.6"
	f.MaxIteration = 3000
	f.ReferenceCompression.Criteria = 0
	ref, err := reference.Generate(renderstate.Never(), f)
	require.NoError(t, err)
	require.Equal(t, uint64(3000), ref.LongestPeriod())

	plain := buildLight(t, ref, format.NoCompression)
	little := buildLight(t, ref, format.LittleCompression)
	strong := buildLight(t, ref, format.Strongest)

	found := 0
	for it := uint64(1); it <= ref.LongestPeriod(); it++ {
		want, ok := plain.Lookup(it)
		gotLittle, okLittle := little.Lookup(it)
		gotStrong, okStrong := strong.Lookup(it)
		require.Equal(t, ok, okLittle, "iteration %d", it)
		require.Equal(t, ok, okStrong, "iteration %d", it)
		if !ok {
			continue
		}
		found++
		require.Equal(t, want, gotLittle, "iteration %d", it)
		require.Equal(t, want, gotStrong, "iteration %d", it)
	}
	require.Positive(t, found)
}

func TestBuild_CompressionMethodsAgreeOnCompressedOrbit(t *testing.T) {
	// the rabbit nucleus is attracted to its 3-cycle, so the orbit folds
	f := attr.Default()
	f.CenterRe, f.CenterIm = "-0.122561166876654", "0.744861766619744"
	f.MaxIteration = 3000
	f.ReferenceCompression = attr.ReferenceCompression{Criteria: 1, ThresholdPower: 12, WithoutNormalize: true}
	ref, err := reference.Generate(renderstate.Never(), f)
	require.NoError(t, err)
	require.Positive(t, ref.Compressed())
	require.Positive(t, ref.Compressor().Len())

	plain := buildLight(t, ref, format.NoCompression)
	strong := buildLight(t, ref, format.Strongest)

	found := 0
	for it := uint64(1); it <= ref.LongestPeriod(); it++ {
		want, ok := plain.Lookup(it)
		got, okStrong := strong.Lookup(it)
		require.Equal(t, ok, okStrong, "iteration %d", it)
		if !ok {
			continue
		}
		found++
		require.Equal(t, skips(want), skips(got), "iteration %d", it)
		for k := range want {
			w, g := want[k], got[k]
			requireClose(t, complex(w.Anr, w.Ani), complex(g.Anr, g.Ani), "iteration %d level %d A", it, k)
			requireClose(t, complex(w.Bnr, w.Bni), complex(g.Bnr, g.Bni), "iteration %d level %d B", it, k)
			requireClose(t, complex(w.Radius, 0), complex(g.Radius, 0), "iteration %d level %d radius", it, k)
		}
	}
	require.Positive(t, found)
}

func TestBuild_Deep(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16}, interval.Interval{Rebase: 1, Start: 9, End: 16})
	cache := NewTableCache()

	light, err := BuildLight(renderstate.Never(), ref, testSettings(format.Strongest), testDCMax, cache)
	require.NoError(t, err)
	lightEntries, ok := light.Lookup(9)
	require.True(t, ok)
	lightEntries = append([]LightPA(nil), lightEntries...)

	deep, err := BuildDeep(renderstate.Never(), ref, testSettings(format.Strongest), numericDCMax(), cache)
	require.NoError(t, err)
	require.True(t, deep.Valid())
	deepEntries, ok := deep.Lookup(9)
	require.True(t, ok)

	require.Equal(t, skips(lightEntries), skips(deepEntries))
	for k := range lightEntries {
		requireClose(t, lightEntries[k].A(), deepEntries[k].A.Complex128())
		requireClose(t, lightEntries[k].B(), deepEntries[k].B.Complex128())
	}
	require.Positive(t, cache.DeepSegmentCount())
}

func TestBuild_Progress(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	var calls []uint64
	var last float64
	buildLight(t, ref, format.NoCompression, WithProgress(func(it uint64, fraction float64) {
		calls = append(calls, it)
		last = fraction
	}))
	require.Len(t, calls, 16)
	require.Equal(t, uint64(16), calls[15])
	require.InDelta(t, 1.0, last, 1e-12)
}

func TestBuild_Cancellation(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	cache := NewTableCache()

	table, err := BuildLight(renderstate.After(0), ref, testSettings(format.Strongest), testDCMax, cache)
	require.ErrorIs(t, err, errs.ErrTerminated)
	require.Nil(t, table)

	table, err = BuildLight(renderstate.Never(), ref, testSettings(format.Strongest), testDCMax, cache)
	require.NoError(t, err)
	require.True(t, table.Valid())
}

func TestBuild_InvalidSettings(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	s := testSettings(format.Strongest)
	s.EpsilonPower = 1

	_, err := BuildLight(renderstate.Never(), ref, s, testDCMax, NewTableCache())
	require.ErrorIs(t, err, errs.ErrInvalidMPASettings)

	_, err = BuildDeep(renderstate.Never(), nil, testSettings(format.Strongest), numericDCMax(), NewTableCache())
	require.ErrorIs(t, err, errs.ErrNoReference)
}

// offGridStrategy reports every generator one iteration late, so that no
// stored entry can be mapped to a slot.
type offGridStrategy struct {
	*LightStrategy
}

type offGridGenerator struct {
	Generator[LightPA]
}

func (g offGridGenerator) Start() uint64 { return g.Generator.Start() + 1 }

func (s offGridStrategy) NewGenerator(start uint64) Generator[LightPA] {
	return offGridGenerator{s.LightStrategy.NewGenerator(start)}
}

func TestBuild_AbortsOnUnresolvableIndex(t *testing.T) {
	ref := cycleReference(t, 8, []uint64{4, 8, 16})
	cache := NewTableCache()
	var rec diag.Recorder
	strategy := offGridStrategy{NewLightStrategy(ref, 1e-3, testDCMax)}

	table, err := build[LightPA](renderstate.Never(), ref, testSettings(format.LittleCompression), strategy,
		cache, &cache.light, []Option{WithDiagnostics(&rec)})
	require.ErrorIs(t, err, errs.ErrUnresolvableIndex)
	require.NotNil(t, table)
	require.False(t, table.Valid())
	require.Equal(t, 1, rec.Count(diag.CodeTableAborted))
}
