package ops

import (
	"sync/atomic"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/groutine"
	"github.com/srg/rayq/internal/handle"
	"github.com/srg/rayq/internal/queue"
)

// Idle is the operation surface for an idle handle (spec §4.3 "Idle"): once
// started it emits an Idle event on every iteration the poller would
// otherwise have nothing to do. A real libuv idle handle piggybacks on the
// native loop's own idle phase; lacking one here, Start instead posts one
// completion per iteration and immediately re-arms itself, so an Idle
// handle only ever produces events when nothing else is contending for the
// runtime thread (the poller only runs a completion once the previous one
// returns).
type Idle struct {
	h   *handle.Handle
	q   *queue.Queue
	gen int64
}

// NewIdle creates and registers a new, inactive idle handle.
func NewIdle(q *queue.Queue) *Idle {
	h := handle.New(0, handle.Idle, q)
	q.Handles().Register(h)
	return &Idle{h: h, q: q}
}

// Handle returns the underlying handle.
func (idl *Idle) Handle() *handle.Handle { return idl.h }

// Start begins emitting Idle events, one per loop iteration.
func (idl *Idle) Start() {
	myGen := atomic.AddInt64(&idl.gen, 1)
	if idl.h.State() == handle.Inactive {
		idl.h.MarkActive()
	}
	idl.q.Poller().Ref(idl.h)
	idl.tick(myGen)
}

// Stop prevents any further Idle events from being scheduled.
func (idl *Idle) Stop() {
	atomic.AddInt64(&idl.gen, 1)
	idl.q.Poller().Unref(idl.h)
}

func (idl *Idle) tick(myGen int64) {
	h, q := idl.h, idl.q
	groutine.GoSimple("rayq-idle-tick", func() {
		q.Poller().Post(func() {
			if atomic.LoadInt64(&idl.gen) != myGen {
				return
			}
			q.Post(evtype.Event{Kind: evtype.Idle, Source: h, Info: 0})
			idl.tick(myGen)
		})
	})
}
