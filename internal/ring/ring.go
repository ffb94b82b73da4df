// Package ring implements the two bounded, power-of-two-sized FIFOs the
// runtime is built from (spec §4.2): the event ring drained by the
// consumer, and the request ring that backs in-flight filesystem requests.
//
// Both are single-producer/single-consumer from the runtime thread's point
// of view (spec invariant 6), so no atomic coordination is needed for the
// put/get counters themselves. The event ring's storage is
// hedzr/go-ringbuf/v2/mpmc.RichOverlappedRingBuffer[T], used the same way
// the teacher's internal/lua/lua_output_collector.go uses it
// (EnqueueM/Dequeue/IsEmpty/Cap). Its own overwrite-oldest behavior is never
// relied upon: capacity is checked and turned into a rayerr.ProgrammerError
// before any Enqueue that would otherwise overwrite. The request ring is a
// plain slice of slots with per-slot in-use flags.
package ring

import (
	"github.com/hedzr/go-ringbuf/v2/mpmc"

	"github.com/srg/rayq/internal/rayerr"
)

// roundCapacity applies spec §4.2's size policy: round the requested
// capacity up to even, preferably a power of two.
func roundCapacity(requested int) uint32 {
	if requested <= 0 {
		requested = 2
	}
	if requested%2 != 0 {
		requested++
	}
	n := uint32(1)
	for int(n) < requested {
		n <<= 1
	}
	return n
}

// Event is the bounded FIFO of completed events (spec C2).
type Event[T any] struct {
	buf      mpmc.RichOverlappedRingBuffer[T]
	nput     uint64
	nget     uint64
	capacity uint32
}

// NewEvent allocates an event ring with the given requested capacity.
func NewEvent[T any](requested int) *Event[T] {
	cap := roundCapacity(requested)
	return &Event[T]{
		buf:      mpmc.NewOverlappedRingBuffer[T](cap),
		capacity: cap,
	}
}

// Cap returns the ring's fixed capacity.
func (r *Event[T]) Cap() int { return int(r.capacity) }

// Count is put-get with wraparound tolerated, matching spec §4.2: both
// indices are modular (uint64 here, which never practically wraps, but the
// subtraction is computed the unsigned way spec §9 calls for rather than
// branching on which counter is larger).
func (r *Event[T]) Count() int {
	return int(r.nput - r.nget)
}

// Post appends an event. It is a programmer error (spec invariant 1) to
// post to a full ring.
func (r *Event[T]) Post(v T) {
	if r.Count() >= int(r.capacity) {
		rayerr.Fatal("ring.Event.Post", "event ring full (capacity %d)", r.capacity)
	}
	if _, err := r.buf.EnqueueM(v); err != nil {
		rayerr.Fatal("ring.Event.Post", "enqueue failed: %v", err)
	}
	r.nput++
}

// Take removes and returns the oldest event, or ok=false if empty.
func (r *Event[T]) Take() (v T, ok bool) {
	if r.Count() == 0 {
		return v, false
	}
	v, err := r.buf.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	r.nget++
	return v, true
}

// Empty reports whether the ring currently holds no events.
func (r *Event[T]) Empty() bool {
	return r.Count() == 0
}

// Request is the bounded pool of in-flight request records (spec C3). Slots
// are reserved in submission order and released once their completion
// callback has run (spec invariant 5). Release accepts any reserved slot in
// any order; a released slot is reused by the next Reserve whose scan from
// the last reserved position reaches it.
type Request[T any] struct {
	slots       []T
	inUse       []bool
	nextFree    int
	capacity    int
	outstanding int
}

// NewRequest allocates a request ring with the given requested capacity.
func NewRequest[T any](requested int) *Request[T] {
	cap := int(roundCapacity(requested))
	return &Request[T]{
		slots:    make([]T, cap),
		inUse:    make([]bool, cap),
		capacity: cap,
	}
}

// Cap returns the ring's fixed capacity.
func (r *Request[T]) Cap() int { return r.capacity }

// Outstanding returns the number of reserved-but-not-yet-released slots.
func (r *Request[T]) Outstanding() int { return r.outstanding }

// Reserve finds the next free slot, marks it in use, and returns its index
// together with a pointer to the zeroed slot storage. It is a programmer
// error (spec invariant 5 / §4.2) to reserve beyond capacity.
func (r *Request[T]) Reserve() (index int, slot *T) {
	if r.outstanding >= r.capacity {
		rayerr.Fatal("ring.Request.Reserve", "request ring full (capacity %d)", r.capacity)
	}
	for i := 0; i < r.capacity; i++ {
		idx := (r.nextFree + i) % r.capacity
		if !r.inUse[idx] {
			r.inUse[idx] = true
			r.nextFree = (idx + 1) % r.capacity
			r.outstanding++
			var zero T
			r.slots[idx] = zero
			return idx, &r.slots[idx]
		}
	}
	rayerr.Fatal("ring.Request.Reserve", "no free slot despite outstanding < capacity")
	return 0, nil
}

// Release gives a reserved slot back to the pool. Calling Release on a slot
// that isn't currently reserved is a programmer error.
func (r *Request[T]) Release(index int) {
	if index < 0 || index >= r.capacity || !r.inUse[index] {
		rayerr.Fatal("ring.Request.Release", "release of unreserved slot %d", index)
	}
	r.inUse[index] = false
	r.outstanding--
}

// At returns a pointer to the slot at index, valid only while the slot
// remains reserved.
func (r *Request[T]) At(index int) *T {
	return &r.slots[index]
}
