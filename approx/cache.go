package approx

import (
	"sync"

	"github.com/arloliu/deepzoom/errs"
	"github.com/arloliu/deepzoom/paged"
)

// TableCache owns the slot storage of both precision tiers and is reused
// across builds so that page allocations survive a recompute.
//
// A build holds the cache exclusively. Tables returned by a build read from
// the cache and stay valid until the next build on the same cache starts.
type TableCache struct {
	mu    sync.Mutex
	light paged.Sparse[[]LightPA]
	deep  paged.Sparse[[]DeepPA]
}

// NewTableCache returns an empty cache.
func NewTableCache() *TableCache {
	return &TableCache{}
}

// acquire locks the cache for one build and clears both tiers.
func (c *TableCache) acquire() (func(), error) {
	if !c.mu.TryLock() {
		return nil, errs.ErrTableBusy
	}
	c.clear()

	return c.mu.Unlock, nil
}

// Clear empties both tiers and keeps their pages. It fails with
// errs.ErrTableBusy while a build is running.
func (c *TableCache) Clear() error {
	if !c.mu.TryLock() {
		return errs.ErrTableBusy
	}
	defer c.mu.Unlock()
	c.clear()

	return nil
}

func (c *TableCache) clear() {
	c.light.Clear()
	c.deep.Clear()
}

// LightSegmentCount returns the number of allocated light-tier pages.
func (c *TableCache) LightSegmentCount() int { return c.light.AllocatedPageCount() }

// DeepSegmentCount returns the number of allocated deep-tier pages.
func (c *TableCache) DeepSegmentCount() int { return c.deep.AllocatedPageCount() }

// ApproximateMemoryUsage returns the page memory of both tiers in bytes. Entry
// slices referenced from the slots are not included.
func (c *TableCache) ApproximateMemoryUsage() uint64 {
	return c.light.ApproximateMemoryUsage() + c.deep.ApproximateMemoryUsage()
}
