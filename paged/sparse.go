package paged

import "unsafe"

// Sparse is a paged array whose pages are allocated on first write. Reads of
// cells on absent pages, or beyond Len, return the zero value. The zero value
// is empty and ready to use.
type Sparse[T any] struct {
	pages [][]T
	size  uint64
}

// Len returns one past the highest index written (or the length set by Resize).
func (s *Sparse[T]) Len() uint64 { return s.size }

// At returns the element at i, or the zero value if it was never written.
func (s *Sparse[T]) At(i uint64) T {
	v, _ := s.Get(i)

	return v
}

// Get returns the element at i and whether its page is allocated and i < Len.
func (s *Sparse[T]) Get(i uint64) (T, bool) {
	if i >= s.size || !s.HasSegment(i) {
		var zero T
		return zero, false
	}

	return s.pages[pageOf(i)][offsetOf(i)], true
}

// Ptr returns the address of element i, allocating its page and extending Len
// to i+1 if needed.
func (s *Sparse[T]) Ptr(i uint64) *T {
	p := pageOf(i)
	s.ensure(p)
	if i >= s.size {
		s.size = i + 1
	}

	return &s.pages[p][offsetOf(i)]
}

// Set writes v at i, allocating its page and extending Len as needed.
func (s *Sparse[T]) Set(i uint64, v T) {
	*s.Ptr(i) = v
}

// Push appends v at index Len.
func (s *Sparse[T]) Push(v T) {
	s.Set(s.size, v)
}

func (s *Sparse[T]) ensure(p uint64) {
	if p >= uint64(len(s.pages)) {
		if p < uint64(cap(s.pages)) {
			s.pages = s.pages[:p+1]
		} else {
			pages := make([][]T, p+1, max(p+1, uint64(2*cap(s.pages))))
			copy(pages, s.pages)
			s.pages = pages
		}
	}
	if s.pages[p] == nil {
		s.pages[p] = make([]T, PageSize)
	}
}

// HasSegment reports whether the page containing i is allocated.
func (s *Sparse[T]) HasSegment(i uint64) bool {
	p := pageOf(i)

	return p < uint64(len(s.pages)) && s.pages[p] != nil
}

// AllocatedPageCount returns the number of allocated pages.
func (s *Sparse[T]) AllocatedPageCount() int {
	n := 0
	for _, page := range s.pages {
		if page != nil {
			n++
		}
	}

	return n
}

// ApproximateMemoryUsage returns the bytes held by allocated pages and the
// page index. Memory referenced from inside elements is not counted.
func (s *Sparse[T]) ApproximateMemoryUsage() uint64 {
	var zero T
	elem := uint64(unsafe.Sizeof(zero))
	header := uint64(unsafe.Sizeof(s.pages))

	return uint64(s.AllocatedPageCount())*PageSize*elem + uint64(cap(s.pages))*header
}

// Reserve grows the page index so that n elements can be addressed without
// reallocating it. No page is allocated.
func (s *Sparse[T]) Reserve(n uint64) {
	need := int(pagesFor(n))
	if need > cap(s.pages) {
		pages := make([][]T, len(s.pages), need)
		copy(pages, s.pages)
		s.pages = pages
	}
}

// Resize sets Len to n. Shrinking frees pages past the new end and zeroes the
// tail of the last kept page, so cells beyond n read as zero if Len grows again.
func (s *Sparse[T]) Resize(n uint64) {
	if n < s.size {
		keep := pagesFor(n)
		if keep < uint64(len(s.pages)) {
			for p := keep; p < uint64(len(s.pages)); p++ {
				s.pages[p] = nil
			}
			s.pages = s.pages[:keep]
		}
		if off := offsetOf(n); off != 0 && keep <= uint64(len(s.pages)) && s.pages[keep-1] != nil {
			clear(s.pages[keep-1][off:])
		}
	}
	s.size = n
}

// Clear zeroes every allocated page and sets Len to 0. Pages stay allocated
// so that the next fill of a similar shape does not allocate again.
func (s *Sparse[T]) Clear() {
	for _, page := range s.pages {
		if page != nil {
			clear(page)
		}
	}
	s.size = 0
}

// Release drops all pages.
func (s *Sparse[T]) Release() {
	s.pages = nil
	s.size = 0
}

// Range calls fn for every index below Len that lies on an allocated page, in
// ascending order, until fn returns false.
func (s *Sparse[T]) Range(fn func(i uint64, v *T) bool) {
	for p, page := range s.pages {
		if page == nil {
			continue
		}
		base := uint64(p) << PageBits
		for off := range page {
			i := base + uint64(off)
			if i >= s.size {
				return
			}
			if !fn(i, &page[off]) {
				return
			}
		}
	}
}
