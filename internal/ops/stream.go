package ops

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/groutine"
	"github.com/srg/rayq/internal/handle"
	"github.com/srg/rayq/internal/queue"
	"github.com/srg/rayq/internal/rayerr"
)

// Stream is the shared read/write/close machinery spec §4.3 describes for
// "Stream (TCP or Pipe)": both Tcp (once connected) and a future Pipe
// implementation wrap one of these around their net.Conn rather than
// duplicating the read loop, write submission, and close sequencing.
type Stream struct {
	h    *handle.Handle
	q    *queue.Queue
	conn net.Conn
	rb   *readBuffer

	readGen int64 // bumped by ReadStart/ReadStop/Close to fence stale completions
	writeMu sync.Mutex
}

// newStream wraps conn for handle h, registered with q.
func newStream(h *handle.Handle, q *queue.Queue, conn net.Conn) *Stream {
	return &Stream{h: h, q: q, conn: conn, rb: newReadBuffer(DefaultReadBufferSize)}
}

// ReadStart begins emitting Read events as bytes arrive, following the
// allocator contract in spec §4.3: nread==0 is silently discarded, nread>0
// transfers an owned buffer as the event's data, nread<0 stops reading and
// emits a single Error event.
func (s *Stream) ReadStart() {
	myGen := atomic.AddInt64(&s.readGen, 1)
	s.q.Poller().Ref(s.h)

	groutine.GoSimple("rayq-stream-read", func() {
		for {
			if atomic.LoadInt64(&s.readGen) != myGen {
				s.q.Poller().Unref(s.h)
				return
			}
			n, err := s.rb.readFrom(s.conn)
			if atomic.LoadInt64(&s.readGen) != myGen {
				s.q.Poller().Unref(s.h)
				return
			}

			if n > 0 {
				data := s.rb.owned(n)
				h, q, gen := s.h, s.q, myGen
				s.q.Poller().Post(func() {
					if atomic.LoadInt64(&s.readGen) != gen {
						return
					}
					q.Post(evtype.Event{
						Kind:   evtype.Read,
						Source: h,
						Info:   int32(n),
						Data:   evtype.ReadPayload{Bytes: data},
					})
				})
			}

			if err != nil {
				code := rayerr.FromErrno(err)
				h, q, gen := s.h, s.q, myGen
				s.q.Poller().Post(func() {
					if atomic.LoadInt64(&s.readGen) != gen {
						return
					}
					q.Post(evtype.Event{Kind: evtype.Error, Source: h, Info: code})
				})
				s.q.Poller().Unref(s.h)
				return
			}
		}
	})
}

// ReadStop prevents any further Read/Error events from this read loop from
// being posted (spec §5: already-enqueued events are still delivered, but
// no new read is attempted after the next loop check).
func (s *Stream) ReadStop() {
	atomic.AddInt64(&s.readGen, 1)
	s.q.Poller().Unref(s.h)
}

// Write submits bytes asynchronously and emits exactly one Write event
// carrying the native status (0 on success, a negative errno otherwise).
func (s *Stream) Write(b []byte) {
	h, q := s.h, s.q
	groutine.GoSimple("rayq-stream-write", func() {
		s.writeMu.Lock()
		_, err := s.conn.Write(b)
		s.writeMu.Unlock()

		status := int32(0)
		if err != nil {
			status = rayerr.FromErrno(err)
		}
		q.Poller().Post(func() {
			q.Post(evtype.Event{Kind: evtype.Write, Source: h, Info: status})
		})
	})
}

// Close is idempotent (spec invariant 4): only the first caller schedules
// the native close and the eventual single Close event.
func (s *Stream) Close() {
	if !s.h.BeginClose() {
		return
	}
	atomic.AddInt64(&s.readGen, 1)
	s.q.Poller().Unref(s.h)

	h, q, conn := s.h, s.q, s.conn
	groutine.GoSimple("rayq-stream-close", func() {
		_ = conn.Close()
		q.Poller().Post(func() {
			h.FinishClose()
			q.Handles().Forget(h.ID())
			q.Post(evtype.Event{Kind: evtype.Close, Source: h, Info: 0})
		})
	})
}
