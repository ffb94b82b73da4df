package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopRuntime struct{}

func (noopRuntime) Interrupt() {}

func TestHandle_LifecycleStates(t *testing.T) {
	h := New(1, Timer, noopRuntime{})
	assert.Equal(t, Inactive, h.State())

	h.MarkActive()
	assert.Equal(t, Active, h.State())

	assert.True(t, h.BeginClose())
	assert.Equal(t, Closing, h.State())

	h.FinishClose()
	assert.Equal(t, Closed, h.State())
}

func TestHandle_CloseIdempotent(t *testing.T) {
	h := New(1, Tcp, noopRuntime{})
	h.MarkActive()

	assert.True(t, h.BeginClose(), "first close should win")
	assert.False(t, h.BeginClose(), "second close must be a no-op")
	assert.False(t, h.BeginClose(), "third close must be a no-op")

	h.FinishClose()
	assert.False(t, h.BeginClose(), "close after closed must still be a no-op")
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "timer", Timer.String())
	assert.Equal(t, "tcp", Tcp.String())
	assert.Contains(t, Kind(999).String(), "Kind(999)")
}

func TestTable_RegisterLookupForget(t *testing.T) {
	tbl := NewTable()
	h1 := New(0, Idle, noopRuntime{})
	h2 := New(0, Idle, noopRuntime{})

	id1 := tbl.Register(h1)
	id2 := tbl.Register(h2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, id1, h1.ID())
	assert.Equal(t, 2, tbl.Len())

	got, ok := tbl.Lookup(id1)
	require.True(t, ok)
	assert.Same(t, h1, got)

	tbl.Forget(id1)
	_, ok = tbl.Lookup(id1)
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_Range(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 3; i++ {
		tbl.Register(New(0, Idle, noopRuntime{}))
	}

	seen := 0
	tbl.Range(func(id int32, h *Handle) bool {
		seen++
		return true
	})
	assert.Equal(t, 3, seen)
}
