package approx

import (
	"fmt"
	"slices"

	"github.com/arloliu/deepzoom/attr"
	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/format"
)

// RequiredPerturbation is the number of iterations at the end of every level
// block that are left to per-pixel perturbation. A level entry therefore
// replaces period-2 iterations.
const RequiredPerturbation = 2

// Settings controls the hierarchy shape and the entry validity threshold.
type Settings struct {
	MinSkipReference          uint64
	MaxMultiplierBetweenLevel uint64
	EpsilonPower              float64
	Method                    format.MPACompressionMethod
}

// SettingsFrom converts the configuration block.
func SettingsFrom(m attr.MPA) Settings {
	return Settings{
		MinSkipReference:          m.MinSkipReference,
		MaxMultiplierBetweenLevel: m.MaxMultiplierBetweenLevel,
		EpsilonPower:              m.EpsilonPower,
		Method:                    m.Method,
	}
}

// Validate checks the ranges NewHierarchy and the builder rely on.
func (s Settings) Validate() error {
	if s.MinSkipReference < RequiredPerturbation+1 || s.MaxMultiplierBetweenLevel < 2 || !(s.EpsilonPower < 0) {
		return fmt.Errorf("%w: minSkip=%d multiplier=%d epsilonPower=%v",
			errs.ErrInvalidMPASettings, s.MinSkipReference, s.MaxMultiplierBetweenLevel, s.EpsilonPower)
	}
	switch s.Method {
	case format.NoCompression, format.LittleCompression, format.Strongest:
	default:
		return fmt.Errorf("%w: method %d", errs.ErrInvalidMPASettings, s.Method)
	}

	return nil
}

// Hierarchy describes the nested block structure of a table. Level 0 is the
// finest. Every level period is at least twice the one below it.
type Hierarchy struct {
	period     []uint64
	elements   []uint64
	artificial []bool
}

// NewHierarchy derives the levels from the ascending period markers of a
// reference. It reports false when no marker reaches MinSkipReference.
func NewHierarchy(periods []uint64, s Settings) (*Hierarchy, bool) {
	h := &Hierarchy{}
	for _, p := range periods {
		if p < s.MinSkipReference {
			continue
		}
		for n := len(h.period); n > 0 && p < 2*h.period[n-1]; n = len(h.period) {
			h.period = h.period[:n-1]
			h.artificial = h.artificial[:n-1]
		}
		for n := len(h.period); n > 0; n = len(h.period) {
			next := h.period[n-1] * s.MaxMultiplierBetweenLevel
			if p/h.period[n-1] <= s.MaxMultiplierBetweenLevel || p < 2*next {
				break
			}
			h.period = append(h.period, next)
			h.artificial = append(h.artificial, true)
		}
		h.period = append(h.period, p)
		h.artificial = append(h.artificial, false)
	}
	if len(h.period) == 0 {
		return nil, false
	}

	h.elements = make([]uint64, len(h.period))
	h.elements[0] = 1
	for i := 1; i < len(h.period); i++ {
		h.elements[i] = h.finestStarts(i, h.period[i])
	}

	return h, true
}

// finestStarts counts the complete level-0 blocks in a block of the given
// length tiled by level i-1 blocks.
func (h *Hierarchy) finestStarts(level int, length uint64) uint64 {
	if level == 0 {
		if length >= h.period[0] {
			return 1
		}

		return 0
	}
	prev := h.period[level-1]

	return length/prev*h.elements[level-1] + h.finestStarts(level-1, length%prev)
}

// Levels returns the number of levels.
func (h *Hierarchy) Levels() int { return len(h.period) }

// TablePeriod returns the block length of level i.
func (h *Hierarchy) TablePeriod(i int) uint64 { return h.period[i] }

// TableElements returns the number of finest-block starts inside a level-i block.
func (h *Hierarchy) TableElements(i int) uint64 { return h.elements[i] }

// IsArtificial reports whether level i was inserted to bound the ratio
// between two detected periods.
func (h *Hierarchy) IsArtificial(i int) bool { return h.artificial[i] }

// Periods returns a copy of all level periods.
func (h *Hierarchy) Periods() []uint64 { return slices.Clone(h.period) }

// Elements returns a copy of all level element counts.
func (h *Hierarchy) Elements() []uint64 { return slices.Clone(h.elements) }

// LongestPeriod returns the period of the coarsest level.
func (h *Hierarchy) LongestPeriod() uint64 { return h.period[len(h.period)-1] }

// PulledIndex numbers the iterations where a complete finest block starts.
// It decomposes iter over the level periods, coarsest first, and fails when
// iter is not a finest-block start or when that block would cross the end of
// the enclosing level block.
func (h *Hierarchy) PulledIndex(iter uint64) (uint64, bool) {
	if iter == 0 {
		return 0, false
	}
	n := len(h.period)
	index, rem := uint64(0), iter
	for i := n; i > 0; i-- {
		p := h.period[i-1]
		if rem < p {
			continue
		}
		if i < n && rem+h.period[0]-RequiredPerturbation+1 > h.period[i] {
			return 0, false
		}
		index += rem / p * h.elements[i-1]
		rem %= p
	}
	if rem != 1 {
		return 0, false
	}

	return index, true
}
