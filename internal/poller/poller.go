// Package poller implements the abstract contract spec §4.1 depends on: a
// non-blocking / one-shot-blocking native event loop. There is no real
// libuv underneath a pure-Go module, so this package's Loop stands in for
// it: every handle family (internal/ops) runs its blocking native primitive
// (time.Timer, net.Listener.Accept, net.Conn.Read, a filesystem syscall) on
// its own goroutine, launched through internal/groutine the same way the
// teacher's internal/ptyio runs its background read/write loops, and posts
// a completion closure back to the Loop instead of calling a C callback
// directly.
//
// Loop.RunNowait and Loop.RunOnce are the only places a completion is ever
// invoked. That is what keeps every ring mutation and every "callback" on
// one logical thread (spec §5's single-threaded-progress invariant),
// regardless of how many real goroutines are feeding the Loop.
package poller

import (
	"sync"
	"sync/atomic"

	"github.com/srg/rayq/internal/handle"
)

// Poller is the contract internal/queue.Queue depends on (spec §4.1).
type Poller interface {
	// RunNowait makes as much progress as possible without blocking, then
	// returns whether further work (a live referenced handle) remains.
	RunNowait() bool
	// RunOnce blocks until at least one completion runs, then returns
	// whether further work remains.
	RunOnce() bool
	// Post enqueues a completion to be invoked on a future RunNowait/RunOnce.
	// Safe to call from any goroutine; the completion itself only ever runs
	// on the thread calling RunNowait/RunOnce.
	Post(fn func())
	// Ref marks h as keeping the loop alive. Safe to call from any goroutine.
	Ref(h *handle.Handle)
	// Unref marks h as not keeping the loop alive (spec: idle/internal
	// timers do not keep the poller running). Safe to call from any
	// goroutine.
	Unref(h *handle.Handle)
	// SendInterrupt forces an in-progress RunOnce to return promptly. Like
	// Post, Ref and Unref, it is safe to call from any goroutine.
	SendInterrupt()
}

// referenced is a handle-local flag (keyed by id) tracking whether Unref
// has been called for it; guards against double-counting on repeated calls
// and against decrementing a handle that was never Ref'd.
type refState struct {
	referenced int32
}

// Loop is the default Poller implementation.
type Loop struct {
	completions chan func()
	wake        chan struct{}
	refCount    int64
	refsMu      sync.Mutex // guards refs; Ref/Unref are called from worker goroutines
	refs        map[int32]*refState
}

// New creates a Loop with a completion queue sized to comfortably hold a
// burst of simultaneous native completions without blocking producers.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Loop{
		completions: make(chan func(), queueSize),
		wake:        make(chan struct{}, 1),
		refs:        make(map[int32]*refState),
	}
}

// Post implements Poller.
func (l *Loop) Post(fn func()) {
	l.completions <- fn
}

// Ref implements Poller. It is idempotent per handle id: calling Ref again
// on a handle that is already referenced (e.g. a timer or stream restarted
// without an intervening Unref) does not inflate refCount beyond one.
func (l *Loop) Ref(h *handle.Handle) {
	l.refsMu.Lock()
	defer l.refsMu.Unlock()
	rs, ok := l.refs[h.ID()]
	if !ok {
		rs = &refState{}
		l.refs[h.ID()] = rs
	}
	if atomic.CompareAndSwapInt32(&rs.referenced, 0, 1) {
		atomic.AddInt64(&l.refCount, 1)
	}
}

// Unref implements Poller.
func (l *Loop) Unref(h *handle.Handle) {
	l.refsMu.Lock()
	defer l.refsMu.Unlock()
	rs, ok := l.refs[h.ID()]
	if !ok {
		return
	}
	if atomic.CompareAndSwapInt32(&rs.referenced, 1, 0) {
		atomic.AddInt64(&l.refCount, -1)
	}
}

func (l *Loop) hasWork() bool {
	return atomic.LoadInt64(&l.refCount) > 0
}

// RunNowait implements Poller.
func (l *Loop) RunNowait() bool {
	for {
		select {
		case fn := <-l.completions:
			fn()
		case <-l.wake:
			// drained a coalesced interrupt; keep looping for real work
		default:
			return l.hasWork()
		}
	}
}

// RunOnce implements Poller.
func (l *Loop) RunOnce() bool {
	select {
	case fn := <-l.completions:
		fn()
	case <-l.wake:
		// spurious wakeup: no completion to run, fall through to drain pass
	}
	for {
		select {
		case fn := <-l.completions:
			fn()
		case <-l.wake:
		default:
			return l.hasWork()
		}
	}
}

// SendInterrupt implements Poller. It may be called from any goroutine.
func (l *Loop) SendInterrupt() {
	select {
	case l.wake <- struct{}{}:
	default:
		// already a pending wakeup queued; coalescing is fine, RunOnce only
		// ever needs to be nudged once to re-check its condition.
	}
}
