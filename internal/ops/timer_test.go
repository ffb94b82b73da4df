package ops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/queue"
)

func TestTimer_FiresOnceAfterTimeout(t *testing.T) {
	q := queue.New(queue.Options{})
	tm := NewTimer(q)
	tm.Start(10, 0)

	evt, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, evtype.Timer, evt.Kind)
	assert.Equal(t, tm.Handle().ID(), evt.Source.ID())

	tm.Stop()
}

func TestTimer_RepeatsUntilStopped(t *testing.T) {
	q := queue.New(queue.Options{})
	tm := NewTimer(q)
	tm.Start(5, 5)

	for i := 0; i < 3; i++ {
		evt, ok := q.Next()
		require.True(t, ok)
		assert.Equal(t, evtype.Timer, evt.Kind)
	}
	tm.Stop()
}

func TestTimer_StopPreventsFurtherFirings(t *testing.T) {
	q := queue.New(queue.Options{})
	tm := NewTimer(q)
	tm.Start(5, 5)

	_, ok := q.Next()
	require.True(t, ok)

	tm.Stop()
	// Drain whatever was already in flight before Stop took effect (spec
	// §5: already-enqueued events are still delivered); only Timer events
	// may appear while draining, and the loop ends once Next reports no
	// further work.
	time.Sleep(30 * time.Millisecond)
	q.Poller().RunNowait()

	for {
		evt, ok := q.Next()
		if !ok {
			break
		}
		assert.Equal(t, evtype.Timer, evt.Kind)
	}
}

func TestTimer_StartIsIdempotentlyRestartable(t *testing.T) {
	q := queue.New(queue.Options{})
	tm := NewTimer(q)
	tm.Start(100, 0)
	tm.Start(5, 0) // restart with a much shorter timeout before the first fires

	evt, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, evtype.Timer, evt.Kind)
	tm.Stop()
}
