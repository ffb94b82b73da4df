// Package queue implements the Runtime (spec §4.4): one poller bound to one
// event ring, one request ring, an interrupt primitive, an internal timer,
// and a system handle used as the source of filesystem events.
package queue

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/handle"
	"github.com/srg/rayq/internal/poller"
	"github.com/srg/rayq/internal/ring"
)

// DefaultEventRingCapacity and DefaultRequestRingCapacity are used when a
// Queue is created with a non-positive capacity, mirroring ray_ctx_new's
// "size + (size % 2)" rounding with a sane built-in floor.
const (
	DefaultEventRingCapacity   = 1024
	DefaultRequestRingCapacity = 256
)

// Queue is the Runtime: the single value a consumer interacts with (spec
// §3.1's "Runtime (Queue)"). It is safe to use only from the single
// designated runtime thread (spec §5), with the sole exception of
// Interrupt.
type Queue struct {
	log *logrus.Logger

	poller *poller.Loop
	events *ring.Event[evtype.Event]
	reqs   *ring.Request[any]

	handles *handle.Table
	system  *handle.Handle

	asyncHandle *handle.Handle
	timerHandle *handle.Handle

	mu sync.Mutex // guards event-ring post + interrupt-on-empty-to-non-empty edge
}

// Options configures a new Queue. Zero values fall back to the defaults
// above, following pkg/config's Config/DefaultConfig convention.
type Options struct {
	EventRingCapacity   int
	RequestRingCapacity int
	Logger              *logrus.Logger
}

// New allocates the two rings, the poller, the async wakeup handle, the
// internal (unreferenced) timer, and the system handle (spec §4.4 "new").
func New(opts Options) *Queue {
	if opts.EventRingCapacity <= 0 {
		opts.EventRingCapacity = DefaultEventRingCapacity
	}
	if opts.RequestRingCapacity <= 0 {
		opts.RequestRingCapacity = DefaultRequestRingCapacity
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}

	q := &Queue{
		log:     log,
		poller:  poller.New(opts.EventRingCapacity + opts.RequestRingCapacity),
		events:  ring.NewEvent[evtype.Event](opts.EventRingCapacity),
		reqs:    ring.NewRequest[any](opts.RequestRingCapacity),
		handles: handle.NewTable(),
	}

	// Two internal handles are always registered and unreferenced (spec
	// §4.1): the async wakeup (delivers interrupts) and the internal timer
	// (reserved for future use; it is never started and has no callback).
	q.asyncHandle = handle.New(0, handle.Async, q)
	q.handles.Register(q.asyncHandle)
	q.asyncHandle.MarkActive()
	q.poller.Ref(q.asyncHandle)
	q.poller.Unref(q.asyncHandle)

	q.timerHandle = handle.New(0, handle.Timer, q)
	q.handles.Register(q.timerHandle)
	q.timerHandle.MarkActive()
	q.poller.Ref(q.timerHandle)
	q.poller.Unref(q.timerHandle)

	q.system = handle.New(0, handle.Poll, q)
	q.handles.Register(q.system)
	q.system.MarkActive()

	q.log.WithFields(logrus.Fields{
		"event_ring_cap":   q.events.Cap(),
		"request_ring_cap": q.reqs.Cap(),
	}).Debug("queue: runtime created")

	return q
}

// SystemHandle is the sentinel handle used as Event.Source for every
// filesystem event (spec §3.1, §4.5 point 3).
func (q *Queue) SystemHandle() *handle.Handle { return q.system }

// Handles returns the handle table, used by internal/ops to register new
// handles and by the poller's completions to look an owner up by id.
func (q *Queue) Handles() *handle.Table { return q.handles }

// Poller exposes the underlying poller to internal/ops, which needs it to
// Ref/Unref handles and Post completions.
func (q *Queue) Poller() *poller.Loop { return q.poller }

// Requests exposes the request ring to internal/ops's filesystem operations.
func (q *Queue) Requests() *ring.Request[any] { return q.reqs }

// Next is the central pump (spec §4.4): it advances the poller until at
// least one event is available or no further work is possible. A
// filesystem submission holds no handle ref (spec's system handle is
// never Ref'd/Unref'd), so an outstanding request-ring reservation counts
// as work in its own right — otherwise Next could report "done" while an
// fs worker goroutine is still about to post its completion.
func (q *Queue) Next() (evtype.Event, bool) {
	for {
		hadWork := q.poller.RunNowait() || q.reqs.Outstanding() > 0
		if !q.events.Empty() {
			break
		}
		if !hadWork {
			return evtype.Event{}, false
		}

		hadWork = q.poller.RunOnce() || q.reqs.Outstanding() > 0
		if !q.events.Empty() {
			break
		}
		if !hadWork {
			return evtype.Event{}, false
		}
	}
	return q.events.Take()
}

// Post is invoked from completions running on the runtime thread; it
// asserts the ring is not full, stores the event, and interrupts any
// concurrent blocking RunOnce if the ring was previously empty (spec
// §4.4 "post").
func (q *Queue) Post(evt evtype.Event) {
	q.mu.Lock()
	wasEmpty := q.events.Empty()
	q.events.Post(evt)
	q.mu.Unlock()

	if wasEmpty {
		q.Interrupt()
	}
}

// Interrupt sends the async wakeup; safe to call from any thread (spec
// §4.4 "interrupt").
func (q *Queue) Interrupt() {
	q.poller.SendInterrupt()
}

// EventDone releases an event's payload. With Go's garbage collector there
// is no explicit free to perform, but this is kept as an explicit API
// (rather than relying on the GC implicitly) because spec invariant 2 makes
// "exactly once" release part of the contract a consumer must honor. It
// only clears evt.Data; there is no guard against a second call, which is
// a harmless no-op.
func EventDone(evt *evtype.Event) {
	evt.Data = nil
}
