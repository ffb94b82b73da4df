package ops

import (
	"net"
	"strconv"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/groutine"
	"github.com/srg/rayq/internal/handle"
	"github.com/srg/rayq/internal/queue"
	"github.com/srg/rayq/internal/rayerr"
)

// Tcp is the operation surface for a TCP handle (spec §4.3 "TCP"). A Tcp
// value starts out as a bare listener candidate; once Accept pairs it with
// an incoming connection (or a future Connect pairs it with an outbound
// one) it gains a *Stream and supports ReadStart/ReadStop/Write/Close.
type Tcp struct {
	h  *handle.Handle
	q  *queue.Queue
	ln net.Listener

	pending chan net.Conn
	*Stream
}

// NewTcp creates and registers a new, inactive TCP handle.
func NewTcp(q *queue.Queue) *Tcp {
	h := handle.New(0, handle.Tcp, q)
	q.Handles().Register(h)
	return &Tcp{h: h, q: q}
}

// Handle returns the underlying handle.
func (t *Tcp) Handle() *handle.Handle { return t.h }

// Bind attaches a listening socket to host:port. Binding to port 0 (as
// S3 does) lets the kernel pick an ephemeral port, recoverable via Addr.
func (t *Tcp) Bind(host string, port int) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	t.ln = ln
	t.h.Native = ln
	return nil
}

// Addr returns the bound listener's address, or nil if not yet bound.
func (t *Tcp) Addr() net.Addr {
	if t.ln == nil {
		return nil
	}
	return t.ln.Addr()
}

// Listen starts accepting connections; each accept-able connection emits a
// Connection event and is held in a bounded pending queue for Accept to
// claim. backlog only sizes that queue; the kernel's listen backlog is the
// one net.Listen chose in Bind and is not changed here.
func (t *Tcp) Listen(backlog int) {
	if backlog <= 0 {
		backlog = 128
	}
	t.h.MarkActive()
	t.q.Poller().Ref(t.h)
	t.pending = make(chan net.Conn, backlog)

	h, q, ln := t.h, t.q, t.ln
	groutine.GoSimple("rayq-tcp-accept", func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if h.State() == handle.Closing || h.State() == handle.Closed {
					return
				}
				q.Poller().Post(func() {
					q.Post(evtype.Event{Kind: evtype.Error, Source: h, Info: rayerr.FromErrno(err)})
				})
				return
			}
			t.pending <- conn
			q.Poller().Post(func() {
				q.Post(evtype.Event{Kind: evtype.Connection, Source: h, Info: 0})
			})
		}
	})
}

// Accept pairs a pending inbound connection with a pre-initialized client
// handle (spec §4.3 "accept(server, client)" — synchronous: it must only be
// called after a Connection event reports a connection is ready). It
// returns rayerr.ErrWouldBlock if nothing is pending.
func (t *Tcp) Accept(client *Tcp) error {
	select {
	case conn := <-t.pending:
		client.ln = nil
		client.Stream = newStream(client.h, client.q, conn)
		client.h.Native = conn
		client.h.MarkActive()
		return nil
	default:
		return rayerr.ErrWouldBlock
	}
}

// Close is idempotent (spec invariant 4). For a connected handle it
// delegates to Stream.Close; for a bare listener it closes the listener
// itself and posts the Close event directly.
func (t *Tcp) Close() {
	if t.Stream != nil {
		t.Stream.Close()
		return
	}
	if !t.h.BeginClose() {
		return
	}
	t.q.Poller().Unref(t.h)

	h, q, ln := t.h, t.q, t.ln
	groutine.GoSimple("rayq-tcp-close", func() {
		if ln != nil {
			_ = ln.Close()
		}
		q.Poller().Post(func() {
			h.FinishClose()
			q.Handles().Forget(h.ID())
			q.Post(evtype.Event{Kind: evtype.Close, Source: h, Info: 0})
		})
	})
}
