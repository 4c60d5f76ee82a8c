package paged

import "fmt"

// Dense is an append-oriented paged array. The zero value is empty and ready to use.
type Dense[T any] struct {
	pages [][]T
	size  uint64
}

// NewDense returns a Dense with room in its page index for n elements.
func NewDense[T any](n uint64) *Dense[T] {
	d := &Dense[T]{}
	d.Reserve(n)

	return d
}

// Len returns the number of elements.
func (d *Dense[T]) Len() uint64 { return d.size }

// Cap returns the number of elements the allocated pages can hold.
func (d *Dense[T]) Cap() uint64 { return uint64(len(d.pages)) << PageBits }

// Push appends v, allocating a new page when the last one is full.
func (d *Dense[T]) Push(v T) {
	if d.size == d.Cap() {
		d.pages = append(d.pages, make([]T, PageSize))
	}
	d.pages[pageOf(d.size)][offsetOf(d.size)] = v
	d.size++
}

// At returns the element at i. It panics if i >= Len.
func (d *Dense[T]) At(i uint64) T {
	return *d.Ptr(i)
}

// Set overwrites the element at i. It panics if i >= Len.
func (d *Dense[T]) Set(i uint64, v T) {
	*d.Ptr(i) = v
}

// Ptr returns the address of element i. The address stays valid while the
// element is within Len. It panics if i >= Len.
func (d *Dense[T]) Ptr(i uint64) *T {
	if i >= d.size {
		panic(fmt.Sprintf("paged: index %d out of range [0:%d]", i, d.size))
	}

	return &d.pages[pageOf(i)][offsetOf(i)]
}

// Back returns the last element. It panics on an empty array.
func (d *Dense[T]) Back() T {
	if d.size == 0 {
		panic("paged: Back on empty array")
	}

	return d.At(d.size - 1)
}

// Reserve grows the page index so that n elements can be addressed without
// reallocating it. Page contents are not allocated.
func (d *Dense[T]) Reserve(n uint64) {
	need := int(pagesFor(n))
	if need > cap(d.pages) {
		pages := make([][]T, len(d.pages), need)
		copy(pages, d.pages)
		d.pages = pages
	}
}

// Resize sets the length to n. Growing appends zero values, shrinking frees
// pages that no longer hold any element.
func (d *Dense[T]) Resize(n uint64) {
	if n <= d.size {
		keep := pagesFor(n)
		for p := keep; p < uint64(len(d.pages)); p++ {
			d.pages[p] = nil
		}
		d.pages = d.pages[:keep]
		if off := offsetOf(n); off != 0 {
			clear(d.pages[keep-1][off:])
		}
		d.size = n

		return
	}
	for uint64(len(d.pages)) < pagesFor(n) {
		d.pages = append(d.pages, make([]T, PageSize))
	}
	d.size = n
}

// Clear drops all pages.
func (d *Dense[T]) Clear() {
	d.pages = nil
	d.size = 0
}

// Pages returns the pages trimmed to Len. The last page may be shorter than
// PageSize. The returned slices alias the array and must not be modified.
func (d *Dense[T]) Pages() [][]T {
	n := pagesFor(d.size)
	out := make([][]T, n)
	for p := range n {
		out[p] = d.pages[p]
		if p == n-1 {
			if off := offsetOf(d.size); off != 0 {
				out[p] = d.pages[p][:off]
			}
		}
	}

	return out
}

// Slice copies the elements into a new contiguous slice. It is meant for small
// arrays and tests.
func (d *Dense[T]) Slice() []T {
	out := make([]T, 0, d.size)
	for _, page := range d.Pages() {
		out = append(out, page...)
	}

	return out
}
