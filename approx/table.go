package approx

import (
	"github.com/arloliu/deepzoom/format"
	"github.com/arloliu/deepzoom/interval"
	"github.com/arloliu/deepzoom/paged"
)

// Table is a built series-approximation table of one precision tier. It is
// read-only and safe for concurrent readers.
type Table[E Entry] struct {
	slots     *paged.Sparse[[]E]
	hierarchy *Hierarchy
	method    format.MPACompressionMethod
	pulled    *interval.Set
	valid     bool
}

// Len returns the number of slots.
func (t *Table[E]) Len() uint64 {
	if t.hierarchy == nil {
		return 0
	}

	return t.slots.Len()
}

// Lookup returns the entries starting at true iteration iter, coarsest level
// first.
func (t *Table[E]) Lookup(iter uint64) ([]E, bool) {
	idx, ok := t.CompIndex(iter)
	if !ok {
		return nil, false
	}
	entries, ok := t.slots.Get(idx)
	if !ok || len(entries) == 0 {
		return nil, false
	}

	return entries, true
}

// CompIndex maps a true iteration to its slot under the table's storage layout.
func (t *Table[E]) CompIndex(iter uint64) (uint64, bool) {
	if t.hierarchy == nil {
		return 0, false
	}

	return compIndex(t.method, t.hierarchy, t.pulled, iter)
}

func compIndex(method format.MPACompressionMethod, h *Hierarchy, pulled *interval.Set, iter uint64) (uint64, bool) {
	switch method {
	case format.NoCompression:
		return iter, true
	case format.LittleCompression:
		return h.PulledIndex(iter)
	default:
		idx, ok := h.PulledIndex(iter)
		if !ok {
			return 0, false
		}

		return pulled.Compress(idx), true
	}
}

// Hierarchy returns the level structure, or nil for an empty table.
func (t *Table[E]) Hierarchy() *Hierarchy { return t.hierarchy }

// Method returns the storage layout.
func (t *Table[E]) Method() format.MPACompressionMethod { return t.method }

// PulledCompressor returns the interval set applied to pulled indices. It is
// empty unless the method is format.Strongest.
func (t *Table[E]) PulledCompressor() *interval.Set { return t.pulled }

// Valid reports whether the build completed. An aborted build leaves a partial
// table that must not be used for rendering.
func (t *Table[E]) Valid() bool { return t.valid }
