package utils

import "golang.org/x/exp/constraints"

// Heap is a min-heap over any ordered element type. The zero value is
// an empty heap ready for use.
type Heap[T constraints.Ordered] struct {
	buf []T
}

func (h *Heap[T]) Len() int {
	return len(h.buf)
}

// Peek returns the minimum element without removing it. The heap must
// not be empty.
func (h *Heap[T]) Peek() T {
	return h.buf[0]
}

// Push adds x onto the heap. O(log n).
func (h *Heap[T]) Push(x T) {
	h.buf = append(h.buf, x)
	i := len(h.buf) - 1
	for i > 0 {
		up := (i - 1) / 2
		if !(h.buf[i] < h.buf[up]) {
			break
		}
		h.buf[i], h.buf[up] = h.buf[up], h.buf[i]
		i = up
	}
}

// Pop removes and returns the minimum element. The heap must not be
// empty. O(log n).
func (h *Heap[T]) Pop() (min T) {
	min = h.buf[0]
	last := len(h.buf) - 1
	h.buf[0] = h.buf[last]
	h.buf = h.buf[:last]
	i := 0
	for {
		kid := 2*i + 1
		if kid >= last {
			break
		}
		if r := kid + 1; r < last && h.buf[r] < h.buf[kid] {
			kid = r
		}
		if !(h.buf[kid] < h.buf[i]) {
			break
		}
		h.buf[i], h.buf[kid] = h.buf[kid], h.buf[i]
		i = kid
	}
	return
}

// Clear drops all elements, keeping the backing storage.
func (h *Heap[T]) Clear() {
	h.buf = h.buf[:0]
}
