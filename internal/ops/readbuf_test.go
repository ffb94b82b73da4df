package ops

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBuffer_ReadFromThenOwned(t *testing.T) {
	b := newReadBuffer(16)
	n, err := b.readFrom(bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	out := b.owned(n)
	assert.Equal(t, "hello", string(out))
}

func TestReadBuffer_OwnedSliceIsIndependentCopy(t *testing.T) {
	b := newReadBuffer(16)
	n, err := b.readFrom(bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	first := b.owned(n)
	_, _ = b.readFrom(bytes.NewReader([]byte("xyz")))
	assert.Equal(t, "abc", string(first), "a previously owned slice must not be mutated by a later read")
}

func TestReadBuffer_DefaultsWhenSizeNonPositive(t *testing.T) {
	b := newReadBuffer(0)
	assert.Len(t, b.tmp, DefaultReadBufferSize)
}
