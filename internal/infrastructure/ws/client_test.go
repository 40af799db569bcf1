package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPumps_EndToEnd(t *testing.T) {
	core, reg := newTestCore(t)

	sess, err := core.ValidateCreate("Alice")
	require.NoError(t, err)

	conn := newStubConn()
	cl := NewClient(conn, sess, "127.0.0.1:4567")

	core.Register(cl)
	go cl.WritePump()
	go cl.ReadPump(core)

	conn.frames <- Frame{Data: "hi"}

	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.written) == 2
	}, time.Second, 5*time.Millisecond)

	conn.mu.Lock()
	written := append([]Event(nil), conn.written...)
	conn.mu.Unlock()

	require.Equal(t, Event{Name: "Alice", Message: JoinNoticeText}, written[0])
	require.Equal(t, Event{Name: "Alice", Message: "hi"}, written[1])

	// Transport close ends the read pump, which detaches the session and
	// tears down the now-empty room.
	_ = conn.Close()

	require.Eventually(t, func() bool {
		return !reg.RoomExists(sess.Room)
	}, time.Second, 5*time.Millisecond)
}
