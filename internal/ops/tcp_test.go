package ops

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/rayq/internal/evtype"
	"github.com/srg/rayq/internal/queue"
	"github.com/srg/rayq/internal/rayerr"
)

// TestTcp_EchoRoundTrip exercises the S3 scenario end to end: bind, listen,
// accept a loopback connection, and echo one message back to the dialer.
func TestTcp_EchoRoundTrip(t *testing.T) {
	q := queue.New(queue.Options{})

	server := NewTcp(q)
	require.NoError(t, server.Bind("127.0.0.1", 0))
	server.Listen(16)

	addr := server.Addr().(*net.TCPAddr)

	dialed := make(chan net.Conn, 1)
	go func() {
		conn, err := net.Dial("tcp", addr.String())
		if err == nil {
			dialed <- conn
		} else {
			close(dialed)
		}
	}()

	evt, ok := q.Next()
	require.True(t, ok)
	require.Equal(t, evtype.Connection, evt.Kind)

	client := NewTcp(q)
	require.NoError(t, server.Accept(client))
	client.ReadStart()

	conn := <-dialed
	require.NotNil(t, conn)
	defer conn.Close()

	_, err := conn.Write([]byte("ping"))
	require.NoError(t, err)

	evt, ok = q.Next()
	require.True(t, ok)
	require.Equal(t, evtype.Read, evt.Kind)
	payload := evt.Data.(evtype.ReadPayload)
	assert.Equal(t, "ping", string(payload.Bytes))

	client.Write([]byte("pong"))
	evt, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, evtype.Write, evt.Kind)

	buf := make([]byte, 4)
	_, err = conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(buf))

	client.Close()
	server.Close()
}

func TestTcp_AcceptWouldBlockWithNoPendingConn(t *testing.T) {
	q := queue.New(queue.Options{})
	server := NewTcp(q)
	require.NoError(t, server.Bind("127.0.0.1", 0))
	server.Listen(16)

	client := NewTcp(q)
	err := server.Accept(client)
	assert.ErrorIs(t, err, rayerr.ErrWouldBlock)
}
