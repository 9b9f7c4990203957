// Package ring implements a lock-free single-producer single-consumer
// bounded queue of typed elements, generalizing the byte-oriented SPSC
// ring used throughout this module's teacher lineage to an arbitrary
// element type via generics.
package ring

import "sync/atomic"

// Ring is a lock-free SPSC bounded queue of T. Push must only be called by
// the producer goroutine; Pop must only be called by the consumer
// goroutine. Capacity is rounded up to the next power of 2.
type Ring[T any] struct {
	buf      []T
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a ring with room for at least capacity elements.
func New[T any](capacity int) *Ring[T] {
	size := nextPowerOf2(uint64(capacity))
	return &Ring[T]{
		buf:  make([]T, size),
		mask: size - 1,
	}
}

// TryPush appends one element. Returns false without blocking if the ring
// is full.
func (r *Ring[T]) TryPush(v T) bool {
	writePos := r.writePos.Load()
	readPos := r.readPos.Load()
	if writePos-readPos >= uint64(len(r.buf)) {
		return false
	}
	r.buf[writePos&r.mask] = v
	r.writePos.Store(writePos + 1)
	return true
}

// TryPop removes and returns one element. Returns false without blocking if
// the ring is empty.
func (r *Ring[T]) TryPop() (T, bool) {
	var zero T
	readPos := r.readPos.Load()
	writePos := r.writePos.Load()
	if readPos == writePos {
		return zero, false
	}
	v := r.buf[readPos&r.mask]
	r.buf[readPos&r.mask] = zero
	r.readPos.Store(readPos + 1)
	return v, true
}

// Len returns the number of elements currently queued.
func (r *Ring[T]) Len() int {
	return int(r.writePos.Load() - r.readPos.Load())
}

// Cap returns the ring's element capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Full reports whether the ring has no space left.
func (r *Ring[T]) Full() bool {
	return r.Len() >= len(r.buf)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
