// Package paged provides big arrays split into fixed-size pages.
//
// Reference orbits can hold hundreds of millions of points, far beyond what a
// single contiguous allocation should carry. Both containers here address
// element i as page i>>PageBits, offset i&PageMask. A page is allocated once
// and never moved, so pointers returned by Ptr stay valid for the lifetime of
// the container (until Clear, Resize below the element, or Release).
//
// Dense is append-oriented: every page up to Len is allocated. Sparse
// allocates a page on its first write only and reads absent cells as the zero
// value, which suits the approximation table whose slots are written far
// apart under compression.
//
// Neither container is safe for concurrent mutation. Concurrent reads of a
// container that is no longer being written are safe.
package paged

const (
	// PageBits is log2 of the page size.
	PageBits = 16
	// PageSize is the number of elements in one page.
	PageSize = 1 << PageBits
	// PageMask extracts the in-page offset from an index.
	PageMask = PageSize - 1
)

func pageOf(i uint64) uint64   { return i >> PageBits }
func offsetOf(i uint64) uint64 { return i & PageMask }

// pagesFor returns the number of pages needed to hold n elements.
func pagesFor(n uint64) uint64 {
	return (n + PageMask) >> PageBits
}
