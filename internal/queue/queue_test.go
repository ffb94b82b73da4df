package queue

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/testutils"
)

func TestQueue_PostThenNext(t *testing.T) {
	q := New(Options{})
	q.Post(evtype.Event{Kind: evtype.Custom, Info: 42})

	evt, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, evtype.Custom, evt.Kind)
	assert.EqualValues(t, 42, evt.Info)
}

func TestQueue_NextFairnessOrder(t *testing.T) {
	q := New(Options{})
	for i := int32(0); i < 5; i++ {
		q.Post(evtype.Event{Kind: evtype.Custom, Info: i})
	}

	for i := int32(0); i < 5; i++ {
		evt, ok := q.Next()
		require.True(t, ok)
		assert.Equal(t, i, evt.Info, "events must be delivered in post order")
	}
}

func TestQueue_NextReturnsFalseWithNoPendingWork(t *testing.T) {
	q := New(Options{})
	// Both internal handles (async, timer) are unref'd in New, so there is
	// no outstanding work and nothing was posted: Next must report "done"
	// without blocking on RunOnce.
	_, ok := q.Next()
	assert.False(t, ok)
}

func TestQueue_InterruptWakesBlockedNext(t *testing.T) {
	q := New(Options{})

	// Hold a reference so RunNowait reports outstanding work and Next()
	// actually blocks in RunOnce waiting for the Post below, instead of
	// returning "done" immediately.
	h := q.SystemHandle()
	q.Poller().Ref(h)
	defer q.Poller().Unref(h)

	done := make(chan evtype.Event, 1)
	go func() {
		evt, ok := q.Next()
		if ok {
			done <- evt
		} else {
			close(done)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Post(evtype.Event{Kind: evtype.Timer, Info: 7})

	select {
	case evt, ok := <-done:
		require.True(t, ok)
		assert.Equal(t, evtype.Timer, evt.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("Next() did not wake up after Post")
	}
}

func TestQueue_SystemHandleIsStable(t *testing.T) {
	q := New(Options{})
	assert.Same(t, q.SystemHandle(), q.SystemHandle())
}

// TestQueue_NextDeliversExactTakeOrder pins down spec testable property 2
// (events are delivered in the exact order they were posted) against a
// rendered text dump, the same way the teacher's own tests diff rendered
// output with testutils.TextAsserter rather than comparing structs field
// by field.
func TestQueue_NextDeliversExactTakeOrder(t *testing.T) {
	q := New(Options{})
	q.Post(evtype.Event{Kind: evtype.Timer, Source: q.SystemHandle(), Info: 1})
	q.Post(evtype.Event{Kind: evtype.Read, Source: q.SystemHandle(), Info: 2})
	q.Post(evtype.Event{Kind: evtype.Close, Source: q.SystemHandle(), Info: 3})

	var got []evtype.Event
	for i := 0; i < 3; i++ {
		evt, ok := q.Next()
		require.True(t, ok)
		got = append(got, evt)
	}

	sysID := q.SystemHandle().ID()
	expected := fmt.Sprintf("timer(%d) info=1\nread(%d) info=2\nclose(%d) info=3\n", sysID, sysID, sysID)

	testutils.NewTextAsserter(t).Assert(testutils.FormatEvents(got), expected)
}

func TestEventDone_ClearsPayload(t *testing.T) {
	evt := evtype.Event{Kind: evtype.Read, Data: evtype.ReadPayload{Bytes: []byte("x")}}
	EventDone(&evt)
	assert.Nil(t, evt.Data)
}
