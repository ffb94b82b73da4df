package ops

import (
	"sync/atomic"
	"time"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/groutine"
	"github.com/srg/rayq/internal/handle"
	"github.com/srg/rayq/internal/queue"
)

// Timer is the operation surface for a timer handle (spec §4.3 "Timer").
// A started timer emits a Timer event after timeout_ms and every repeat_ms
// thereafter until Stop or Close, mirroring ray_timer_start/ray_timer_stop.
type Timer struct {
	h   *handle.Handle
	q   *queue.Queue
	gen int64 // incremented on every Start/Stop to invalidate outstanding sleeps
}

// NewTimer creates and registers a new, inactive timer handle.
func NewTimer(q *queue.Queue) *Timer {
	h := handle.New(0, handle.Timer, q)
	q.Handles().Register(h)
	return &Timer{h: h, q: q}
}

// Handle returns the underlying handle, e.g. for SetID/UserData (spec §6).
func (t *Timer) Handle() *handle.Handle { return t.h }

// Start begins (or restarts) the timer. timeoutMs is the delay before the
// first firing; repeatMs, if >0, is the interval between subsequent
// firings; if 0, the timer fires once.
func (t *Timer) Start(timeoutMs, repeatMs int64) {
	myGen := atomic.AddInt64(&t.gen, 1)
	if t.h.State() == handle.Inactive {
		t.h.MarkActive()
	}
	t.q.Poller().Ref(t.h)

	delay := time.Duration(timeoutMs) * time.Millisecond
	repeat := time.Duration(repeatMs) * time.Millisecond

	t.run(myGen, delay, repeat)
}

// Stop prevents any further firing. Spec §5: an event already enqueued but
// not yet delivered will still be delivered.
func (t *Timer) Stop() {
	atomic.AddInt64(&t.gen, 1)
	t.q.Poller().Unref(t.h)
}

func (t *Timer) run(myGen int64, delay, repeat time.Duration) {
	groutine.GoSimple("rayq-timer-sleep", func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		for {
			<-timer.C
			if atomic.LoadInt64(&t.gen) != myGen {
				t.q.Poller().Unref(t.h)
				return
			}
			t.q.Poller().Post(func() {
				if atomic.LoadInt64(&t.gen) != myGen {
					return
				}
				t.q.Post(evtype.Event{Kind: evtype.Timer, Source: t.h, Info: 0})
			})
			if repeat <= 0 {
				t.q.Poller().Unref(t.h)
				return
			}
			timer.Reset(repeat)
		}
	})
}
