package buffer

// Ring is a fixed-capacity ring holding the last N pushed values.
// Pushing to a full ring evicts the oldest value.
type Ring[T any] struct {
	buf        []T
	head, tail int64
}

// RingN creates a Ring with capacity n.
func RingN[T any](n int) *Ring[T] {
	return &Ring[T]{buf: make([]T, n)}
}

// Push adds v to the ring, evicting the oldest value when full.
func (r *Ring[T]) Push(v T) {
	r.buf[r.tail%int64(len(r.buf))] = v
	r.tail++
	if r.tail-r.head > int64(len(r.buf)) {
		r.head++
	}
}

// Len returns the number of values currently held.
func (r *Ring[T]) Len() int {
	return int(r.tail - r.head)
}

// Values returns a copy of the held values, oldest first.
func (r *Ring[T]) Values() []T {
	n := int(r.tail - r.head)
	out := make([]T, 0, n)
	for i := r.head; i < r.tail; i++ {
		out = append(out, r.buf[i%int64(len(r.buf))])
	}
	return out
}

// Reset discards all held values.
func (r *Ring[T]) Reset() {
	r.head = 0
	r.tail = 0
}
