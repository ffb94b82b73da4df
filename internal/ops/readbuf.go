package ops

import (
	"io"

	"github.com/smallnest/ringbuffer"
)

// DefaultReadBufferSize is the allocator's suggested buffer size (spec
// §4.3: "default 1024 or RAY_BUF_SIZE = 4096"). This module keeps the
// original constant's name and value from ray.h.
const DefaultReadBufferSize = 4096

// readBuffer is the per-stream scratch buffer the read allocator draws
// from, replacing ray_buf_t's grow-by-doubling C buffer with a bounded
// byte ring (smallnest/ringbuffer, the same library the teacher's
// internal/ptyio uses to buffer an async byte source). Unlike ray_buf_t it
// does not grow: a single read never exceeds DefaultReadBufferSize, which
// satisfies the allocator contract ("fixed suggested size") without manual
// realloc bookkeeping.
type readBuffer struct {
	rb  *ringbuffer.RingBuffer
	tmp []byte
}

func newReadBuffer(size int) *readBuffer {
	if size <= 0 {
		size = DefaultReadBufferSize
	}
	return &readBuffer{
		rb:  ringbuffer.New(size),
		tmp: make([]byte, size),
	}
}

// readFrom performs one native read into the scratch buffer. It mirrors
// ray_alloc_cb followed immediately by ray_read_cb's nread>0 path.
func (b *readBuffer) readFrom(r io.Reader) (int, error) {
	n, err := r.Read(b.tmp)
	if n > 0 {
		b.rb.Reset()
		if _, werr := b.rb.Write(b.tmp[:n]); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// owned copies the last n bytes buffered by readFrom into a freshly
// allocated, independently-owned slice — the Go equivalent of ray_read_cb's
// strndup(self->buf.base, nread), which is what becomes the Read event's
// Data payload (spec §3.3: Event.Data is exclusively owned by the event).
func (b *readBuffer) owned(n int) []byte {
	out := make([]byte, n)
	_, _ = b.rb.Read(out)
	return out
}
