// Package interval implements the run-length index compression shared by the
// reference orbit and the approximation table.
//
// An Interval (Rebase, Start, End) states that the values at indices
// Start..End repeat the values at Rebase..Rebase+End-Start, so only the
// representative run needs to be stored. A Set maps any raw index to the
// canonical index it is stored under.
package interval

import (
	"fmt"
	"slices"
	"sort"

	"github.com/arloliu/deepzoom/errs"
)

// Interval is a compressed index run.
type Interval struct {
	Rebase uint64 // first index of the run being replayed
	Start  uint64
	End    uint64
}

// Range returns End - Start, the number of indices the interval removes from
// canonical storage.
func (iv Interval) Range() uint64 {
	return iv.End - iv.Start
}

// Contains reports whether i lies in [Start, End].
func (iv Interval) Contains(i uint64) bool {
	return i >= iv.Start && i <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("(%d, %d, %d)", iv.Rebase, iv.Start, iv.End)
}

// Set is an ordered list of non-overlapping intervals. The zero value is an
// empty set. Lookups are O(log n).
type Set struct {
	intervals []Interval
	starts    []uint64
	removed   []uint64 // removed[k] = sum of Range() over intervals[0..k]
}

// NewSet builds a Set from intervals sorted by Start.
func NewSet(ivs ...Interval) (*Set, error) {
	s := &Set{}
	for _, iv := range ivs {
		if err := s.Append(iv); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Append adds iv after the last interval.
func (s *Set) Append(iv Interval) error {
	if iv.End < iv.Start {
		return fmt.Errorf("%w: %s", errs.ErrIntervalEmpty, iv)
	}
	if iv.Rebase >= iv.Start {
		return fmt.Errorf("%w: %s", errs.ErrIntervalRebase, iv)
	}
	var total uint64
	if n := len(s.intervals); n > 0 {
		if last := s.intervals[n-1]; iv.Start <= last.End {
			return fmt.Errorf("%w: %s after %s", errs.ErrIntervalOrder, iv, last)
		}
		total = s.removed[n-1]
	}
	s.intervals = append(s.intervals, iv)
	s.starts = append(s.starts, iv.Start)
	s.removed = append(s.removed, total+iv.Range())

	return nil
}

// Len returns the number of intervals.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.intervals)
}

// At returns the k-th interval.
func (s *Set) At(k int) Interval { return s.intervals[k] }

// Intervals returns a copy of the intervals in order.
func (s *Set) Intervals() []Interval {
	if s == nil {
		return nil
	}

	return slices.Clone(s.intervals)
}

// TotalRange returns the sum of Range over all intervals.
func (s *Set) TotalRange() uint64 {
	if s.Len() == 0 {
		return 0
	}

	return s.removed[len(s.removed)-1]
}

// locate returns the index of the last interval with Start <= i, or -1.
func (s *Set) locate(i uint64) int {
	return sort.Search(len(s.starts), func(k int) bool { return s.starts[k] > i }) - 1
}

// ContainedIndex returns the index of the interval containing i.
func (s *Set) ContainedIndex(i uint64) (int, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	k := s.locate(i)
	if k < 0 || !s.intervals[k].Contains(i) {
		return 0, false
	}

	return k, true
}

// IsIndependent reports whether i lies outside every interval, that is
// whether its value is not a replay of an earlier run.
func (s *Set) IsIndependent(i uint64) bool {
	_, ok := s.ContainedIndex(i)

	return !ok
}

// Compress maps raw index i to its canonical storage index.
//
// An index inside an interval is replayed onto the run it repeats, as often as
// needed. Each interval is left in a single step, so the cost stays logarithmic
// even for a run that replays itself many times. Any other index is shifted down by the total Range of the intervals
// ending before it. On an empty set Compress is the identity, and it is
// strictly increasing over indices that lie in no interval.
func (s *Set) Compress(i uint64) uint64 {
	if s.Len() == 0 {
		return i
	}
	for {
		k := s.locate(i)
		if k < 0 {
			return i
		}
		iv := s.intervals[k]
		if iv.Contains(i) {
			// replays that land back inside iv step down by Start-Rebase
			// each time, so fold them all at once
			i = iv.Rebase + (i-iv.Start)%(iv.Start-iv.Rebase)
			continue
		}

		return i - s.removed[k]
	}
}

// BinarySearch returns the index of key in the strictly increasing slice arr.
func BinarySearch(arr []uint64, key uint64) (int, bool) {
	return slices.BinarySearch(arr, key)
}
