package interval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/deepzoom/errs"
)

func mustSet(t *testing.T, ivs ...Interval) *Set {
	t.Helper()
	s, err := NewSet(ivs...)
	require.NoError(t, err)

	return s
}

func TestSet_EmptyIsIdentity(t *testing.T) {
	var s Set
	for _, i := range []uint64{0, 1, 77, 1 << 40} {
		require.Equal(t, i, s.Compress(i))
		require.True(t, s.IsIndependent(i))
	}
	_, ok := s.ContainedIndex(3)
	require.False(t, ok)
	require.Zero(t, s.TotalRange())

	var nilSet *Set
	require.Zero(t, nilSet.Len())
	require.Nil(t, nilSet.Intervals())
}

func TestSet_Append(t *testing.T) {
	s := mustSet(t, Interval{1, 10, 20})

	require.ErrorIs(t, s.Append(Interval{1, 20, 30}), errs.ErrIntervalOrder)
	require.ErrorIs(t, s.Append(Interval{1, 15, 18}), errs.ErrIntervalOrder)
	require.ErrorIs(t, s.Append(Interval{40, 40, 50}), errs.ErrIntervalRebase)
	require.ErrorIs(t, s.Append(Interval{1, 50, 49}), errs.ErrIntervalEmpty)
	require.NoError(t, s.Append(Interval{1, 21, 21}))

	require.Equal(t, 2, s.Len())
	require.Equal(t, Interval{1, 21, 21}, s.At(1))
	require.Equal(t, uint64(10), s.TotalRange())

	_, err := NewSet(Interval{5, 5, 6})
	require.ErrorIs(t, err, errs.ErrIntervalRebase)
}

func TestSet_Compress(t *testing.T) {
	// iterations 10..20 repeat 1..11 (so 19 and 20 replay twice), iterations
	// 30..33 repeat 1..4
	s := mustSet(t, Interval{1, 10, 20}, Interval{1, 30, 33})

	tests := []struct {
		in, want uint64
	}{
		{0, 0},
		{9, 9},
		{10, 1}, // replayed onto the representative run
		{15, 6},
		{19, 1},
		{20, 2},
		{21, 11}, // 21 - 10
		{29, 19},
		{30, 1},
		{33, 4},
		{34, 21}, // 34 - 10 - 3
		{100, 87},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, s.Compress(tt.in), "Compress(%d)", tt.in)
	}
}

func TestSet_CompressNestedReplay(t *testing.T) {
	// a period-2 pattern: 3..10 replays 1..8, which itself lands inside the run
	s := mustSet(t, Interval{1, 3, 10})
	require.Equal(t, uint64(1), s.Compress(3))
	require.Equal(t, uint64(2), s.Compress(4))
	require.Equal(t, uint64(1), s.Compress(5))
	require.Equal(t, uint64(2), s.Compress(10))
	require.Equal(t, uint64(4), s.Compress(11))
}

func TestSet_CompressLongSelfReplay(t *testing.T) {
	const end = uint64(1) << 62
	s := mustSet(t, Interval{1, 2, end})
	require.Equal(t, uint64(1), s.Compress(end))
	require.Equal(t, uint64(1), s.Compress(end/2))
	require.Equal(t, uint64(3), s.Compress(end+1))

	s = mustSet(t, Interval{1, 4, end})
	for _, i := range []uint64{4, 5, 6, 7, 1000, end - 1, end} {
		require.Equal(t, 1+(i-4)%3, s.Compress(i), "Compress(%d)", i)
	}
}

func TestSet_CompressMatchesStepwiseReplay(t *testing.T) {
	s := mustSet(t, Interval{1, 3, 40}, Interval{2, 50, 90}, Interval{1, 100, 101})
	stepwise := func(i uint64) uint64 {
		for {
			k, ok := s.ContainedIndex(i)
			if !ok {
				break
			}
			iv := s.At(k)
			i = iv.Rebase + (i - iv.Start)
		}
		k := s.locate(i)
		if k < 0 {
			return i
		}

		return i - s.removed[k]
	}
	for i := range uint64(200) {
		require.Equal(t, stepwise(i), s.Compress(i), "Compress(%d)", i)
	}
}

func TestSet_CompressMonotonicOutsideIntervals(t *testing.T) {
	s := mustSet(t,
		Interval{1, 5, 9},
		Interval{2, 12, 30},
		Interval{1, 31, 31},
		Interval{3, 40, 1000},
	)

	var prev uint64
	first := true
	for i := range uint64(2000) {
		if !s.IsIndependent(i) {
			continue
		}
		c := s.Compress(i)
		require.LessOrEqual(t, c, i)
		if !first {
			require.Greater(t, c, prev, "Compress(%d)", i)
		}
		prev, first = c, false
	}
}

func TestSet_ContainedIndex(t *testing.T) {
	s := mustSet(t, Interval{1, 10, 20}, Interval{1, 30, 33})

	k, ok := s.ContainedIndex(10)
	require.True(t, ok)
	require.Equal(t, 0, k)

	k, ok = s.ContainedIndex(33)
	require.True(t, ok)
	require.Equal(t, 1, k)

	for _, i := range []uint64{0, 9, 21, 29, 34} {
		_, ok = s.ContainedIndex(i)
		require.False(t, ok, "index %d", i)
		require.True(t, s.IsIndependent(i))
	}
	require.False(t, s.IsIndependent(15))
}

func TestSet_IntervalsIsCopy(t *testing.T) {
	s := mustSet(t, Interval{1, 10, 20})
	ivs := s.Intervals()
	ivs[0].End = 99
	require.Equal(t, uint64(20), s.At(0).End)
	require.Equal(t, "(1, 10, 20)", s.At(0).String())
}

func TestBinarySearch(t *testing.T) {
	arr := []uint64{2, 4, 8, 16, 64}
	for want, key := range arr {
		got, ok := BinarySearch(arr, key)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	for _, key := range []uint64{0, 1, 3, 9, 63, 65, 1 << 60} {
		_, ok := BinarySearch(arr, key)
		require.False(t, ok, "key %d", key)
	}
	_, ok := BinarySearch(nil, 1)
	require.False(t, ok)
}
