package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/rayq/internal/rayerr"
)

func TestRoundCapacity(t *testing.T) {
	assert.Equal(t, uint32(16), roundCapacity(16))
	assert.Equal(t, uint32(16), roundCapacity(15))
	assert.Equal(t, uint32(8), roundCapacity(5))
	assert.Equal(t, uint32(2), roundCapacity(1))
}

func TestEvent_TakeOrder(t *testing.T) {
	r := NewEvent[int](8)
	for i := 1; i <= 5; i++ {
		r.Post(i)
	}
	for i := 1; i <= 5; i++ {
		v, ok := r.Take()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := r.Take()
	assert.False(t, ok)
}

func TestEvent_CapacityRoundsUp(t *testing.T) {
	r := NewEvent[int](5)
	assert.Equal(t, 8, r.Cap())
}

func TestEvent_OverflowIsFatal(t *testing.T) {
	r := NewEvent[int](2)
	r.Post(1)
	r.Post(2)

	assert.Panics(t, func() {
		r.Post(3)
	})
}

func TestEvent_EmptyAndCount(t *testing.T) {
	r := NewEvent[int](4)
	assert.True(t, r.Empty())
	r.Post(1)
	assert.False(t, r.Empty())
	assert.EqualValues(t, 1, r.Count())
	r.Take()
	assert.True(t, r.Empty())
}

func TestRequest_ReserveReleaseBound(t *testing.T) {
	rq := NewRequest[string](4)
	assert.EqualValues(t, 4, rq.Cap())

	idxs := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		idx, slot := rq.Reserve()
		*slot = "x"
		idxs = append(idxs, idx)
	}
	assert.Equal(t, 4, rq.Outstanding())

	var pe *rayerr.ProgrammerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				if e, ok := r.(*rayerr.ProgrammerError); ok {
					pe = e
				}
			}
		}()
		rq.Reserve()
	}()
	assert.NotNil(t, pe, "expected reserving beyond capacity to be a fatal programmer error")

	rq.Release(idxs[0])
	assert.Equal(t, 3, rq.Outstanding())

	idx, _ := rq.Reserve()
	assert.Equal(t, idxs[0], idx)
}
