package buffer

import "slices"

// Window is a growable buffer bounded to a maximum number of elements.
// When an append would exceed the bound, the oldest elements are dropped
// from the front so the window always contains the most recent data.
type Window[T any] struct {
	buf []T
	max int
}

// WindowN creates a Window bounded to max elements.
func WindowN[T any](max int) *Window[T] {
	return &Window[T]{
		buf: make([]T, 0, max),
		max: max,
	}
}

// Append appends p to the window, discarding the oldest elements if the
// bound would be exceeded. If p alone is larger than the bound, only its
// last max elements are kept.
func (w *Window[T]) Append(p []T) {
	if len(p) >= w.max {
		w.buf = append(w.buf[:0], p[len(p)-w.max:]...)
		return
	}
	w.buf = append(w.buf, p...)
	if over := len(w.buf) - w.max; over > 0 {
		w.buf = slices.Delete(w.buf, 0, over)
	}
}

// Len returns the number of elements currently in the window.
func (w *Window[T]) Len() int {
	return len(w.buf)
}

// Tail returns a copy of the most recent n elements. If fewer than n
// elements are buffered, all of them are returned.
func (w *Window[T]) Tail(n int) []T {
	if n > len(w.buf) {
		n = len(w.buf)
	}
	return slices.Clone(w.buf[len(w.buf)-n:])
}

// Reset discards all buffered elements. Capacity is retained.
func (w *Window[T]) Reset() {
	w.buf = w.buf[:0]
}
