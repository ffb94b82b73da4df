// Package handle implements the addressable resource type (spec §3.1, §4.3):
// its kind, its lifecycle state machine, and the handle table used to
// recover a Handle from the id carried by a poller completion.
//
// The original C implementation recovers the owning record from a native
// pointer via container_of (fixed-offset pointer arithmetic). Spec §9
// recommends against reproducing that trick in a memory-safe language and
// suggests a slab of handles addressed by a small integer index instead;
// Table below is that slab, implemented the same way the teacher's
// scanner.go indexes live BLE devices: a lock-free hashmap keyed by id.
package handle

import (
	"fmt"
	"sync/atomic"

	"github.com/cornelk/hashmap"
)

// Kind identifies the native resource family a Handle wraps.
type Kind int

const (
	Timer Kind = iota
	Tcp
	Pipe
	Idle
	Async
	Check
	Prepare
	FsEvent
	FsPoll
	Poll
	Process
	Tty
	Udp
)

func (k Kind) String() string {
	switch k {
	case Timer:
		return "timer"
	case Tcp:
		return "tcp"
	case Pipe:
		return "pipe"
	case Idle:
		return "idle"
	case Async:
		return "async"
	case Check:
		return "check"
	case Prepare:
		return "prepare"
	case FsEvent:
		return "fs_event"
	case FsPoll:
		return "fs_poll"
	case Poll:
		return "poll"
	case Process:
		return "process"
	case Tty:
		return "tty"
	case Udp:
		return "udp"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is a handle's position in the spec §3.2 invariant-3 lifecycle:
// inactive -> active -> closing -> closed.
type State int32

const (
	Inactive State = iota
	Active
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RuntimeRef is the minimal back-reference a Handle needs into its owning
// runtime; internal/queue.Queue implements it. It is a non-owning,
// "weak" reference in the sense spec §9 describes: the runtime is
// guaranteed to outlive every handle it created, so no ownership machinery
// is needed on the Go side beyond a plain field.
type RuntimeRef interface {
	Interrupt()
}

// Handle is an addressable resource registered with the poller (spec §3.1).
// Native is an opaque slot internal/ops fills with whatever concrete state a
// given Kind needs (a TCP handle's net.Listener or net.Conn); the handle
// package itself never inspects it.
type Handle struct {
	Kind     Kind
	Native   interface{}
	Runtime  RuntimeRef
	UserData interface{}
	id       int32
	state    int32 // atomic, State
}

// New constructs a Handle in the Inactive state with the given id. Callers
// (internal/ops) are responsible for placing it into a Table and for
// constructing whatever Native state its Kind requires.
func New(id int32, kind Kind, rt RuntimeRef) *Handle {
	return &Handle{Kind: kind, Runtime: rt, id: id, state: int32(Inactive)}
}

// ID returns the handle's id. The core never interprets this value; it is
// exposed for the embedding bridge's callback-table lookups (spec §6).
func (h *Handle) ID() int32 { return h.id }

// SetID lets an embedder assign its own identity, per spec §6 ("the
// embedder may set a small integer id ... and later recover it").
func (h *Handle) SetID(id int32) { atomic.StoreInt32((*int32)(&h.id), id) }

// State returns the handle's current lifecycle state.
func (h *Handle) State() State {
	return State(atomic.LoadInt32(&h.state))
}

// MarkActive transitions Inactive -> Active.
func (h *Handle) MarkActive() {
	atomic.StoreInt32(&h.state, int32(Active))
}

// BeginClose transitions to Closing if (and only if) the handle was not
// already Closing or Closed, returning true if this call performed the
// transition. Close idempotency (spec invariant 4) is implemented entirely
// by this compare-and-swap: a second close() is a guaranteed no-op.
func (h *Handle) BeginClose() bool {
	for {
		cur := State(atomic.LoadInt32(&h.state))
		if cur == Closing || cur == Closed {
			return false
		}
		if atomic.CompareAndSwapInt32(&h.state, int32(cur), int32(Closing)) {
			return true
		}
	}
}

// FinishClose transitions Closing -> Closed. Called once, by the native
// close-completion callback.
func (h *Handle) FinishClose() {
	atomic.StoreInt32(&h.state, int32(Closed))
}

// Table is the handle slab (spec §9): a registry mapping a handle's id to
// the Handle itself, so a poller completion carrying only an id can recover
// everything else in O(1) without pointer arithmetic.
type Table struct {
	m      *hashmap.Map[int32, *Handle]
	nextID int64
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{m: hashmap.New[int32, *Handle]()}
}

// Register allocates a fresh id for h, stores it in the table, and sets
// h's id accordingly.
func (t *Table) Register(h *Handle) int32 {
	id := int32(atomic.AddInt64(&t.nextID, 1))
	h.SetID(id)
	t.m.Set(id, h)
	return id
}

// Lookup recovers a Handle by id. ok is false if no handle with that id is
// currently registered (e.g. it was already closed and forgotten).
func (t *Table) Lookup(id int32) (h *Handle, ok bool) {
	return t.m.Get(id)
}

// Forget removes a handle from the table, typically once it reaches Closed.
func (t *Table) Forget(id int32) {
	t.m.Del(id)
}

// Len returns the number of currently-registered handles.
func (t *Table) Len() int {
	return t.m.Len()
}

// Range calls fn for every registered handle, in no particular order,
// stopping early if fn returns false.
func (t *Table) Range(fn func(id int32, h *Handle) bool) {
	t.m.Range(fn)
}
