package ws

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"relaychat/internal/domain"
	"relaychat/internal/infrastructure/metrics"
	"relaychat/internal/infrastructure/registry"
)

// stubConn stands in for a websocket connection. Frames pushed into the
// frames channel come out of ReadJSON; writes are recorded.
type stubConn struct {
	frames  chan Frame
	mu      sync.Mutex
	written []Event
	closed  bool
}

func newStubConn() *stubConn {
	return &stubConn{frames: make(chan Frame, 16)}
}

func (s *stubConn) ReadJSON(v any) error {
	frame, ok := <-s.frames
	if !ok {
		return io.EOF
	}

	*(v.(*Frame)) = frame
	return nil
}

func (s *stubConn) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("conn closed")
	}

	s.written = append(s.written, *(v.(*Event)))
	return nil
}

func (s *stubConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}

func (s *stubConn) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestCore(t *testing.T) (*Core, *registry.Registry) {
	t.Helper()

	reg := registry.New(4)
	core := NewCore(reg, zap.NewNop().Sugar(), metrics.New(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go core.Run(ctx)

	return core, reg
}

func recvEvent(t *testing.T, cl *Client) *Event {
	t.Helper()

	select {
	case ev, ok := <-cl.send:
		require.True(t, ok, "send channel closed while waiting for event")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireNoEvent(t *testing.T, cl *Client) {
	t.Helper()

	select {
	case ev := <-cl.send:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func members(t *testing.T, reg *registry.Registry, code string) int {
	t.Helper()

	room, err := reg.GetRoom(code)
	require.NoError(t, err)
	return room.Members
}

func TestValidateJoin(t *testing.T) {
	core, reg := newTestCore(t)

	_, err := core.ValidateJoin("", "WXYZ")
	require.ErrorIs(t, err, domain.ErrMissingName)

	_, err = core.ValidateJoin("Alice", "")
	require.ErrorIs(t, err, domain.ErrMissingCode)

	_, err = core.ValidateJoin("Alice", "WXYZ")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
	require.Zero(t, reg.Len(), "failed join must not mutate the registry")

	code, err := reg.CreateRoom()
	require.NoError(t, err)

	sess, err := core.ValidateJoin("Alice", code)
	require.NoError(t, err)
	require.Equal(t, domain.ClientSession{Room: code, Name: "Alice"}, sess)
}

func TestValidateCreate(t *testing.T) {
	core, reg := newTestCore(t)

	_, err := core.ValidateCreate("")
	require.ErrorIs(t, err, domain.ErrMissingName)
	require.Zero(t, reg.Len())

	sess, err := core.ValidateCreate("Bob")
	require.NoError(t, err)
	require.Equal(t, "Bob", sess.Name)
	require.Len(t, sess.Room, 4)
	require.Equal(t, 0, members(t, reg, sess.Room))
}

func TestConnect_InclusiveEcho(t *testing.T) {
	core, reg := newTestCore(t)

	sess, err := core.ValidateCreate("Alice")
	require.NoError(t, err)

	cl := NewClient(newStubConn(), sess, "127.0.0.1:1234")
	core.Register(cl)

	ev := recvEvent(t, cl)
	require.Equal(t, "Alice", ev.Name)
	require.Equal(t, JoinNoticeText, ev.Message)
	require.Equal(t, 1, members(t, reg, sess.Room))

	// Join notices are broadcast only, not persisted.
	msgs, err := reg.Messages(sess.Room)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestConnect_FailClosedOnDeadRoom(t *testing.T) {
	core, reg := newTestCore(t)

	conn := newStubConn()
	cl := NewClient(conn, domain.ClientSession{Room: "WXYZ", Name: "Alice"}, "")
	core.Register(cl)

	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	require.Zero(t, reg.Len())

	_, ok := <-cl.send
	require.False(t, ok, "send channel must be closed for a rejected client")
}

func TestBroadcast_OrderAndHistory(t *testing.T) {
	core, reg := newTestCore(t)

	sess, err := core.ValidateCreate("Alice")
	require.NoError(t, err)

	alice := NewClient(newStubConn(), sess, "")
	core.Register(alice)
	recvEvent(t, alice) // Alice's own join notice

	carlSess, err := core.ValidateJoin("Carl", sess.Room)
	require.NoError(t, err)
	carl := NewClient(newStubConn(), carlSess, "")
	core.Register(carl)

	for _, cl := range []*Client{alice, carl} {
		ev := recvEvent(t, cl)
		require.Equal(t, "Carl", ev.Name)
		require.Equal(t, JoinNoticeText, ev.Message)
	}
	require.Equal(t, 2, members(t, reg, sess.Room))

	core.Broadcast(alice, "hi")
	core.Broadcast(carl, "hello")

	for _, cl := range []*Client{alice, carl} {
		first := recvEvent(t, cl)
		require.Equal(t, Event{Name: "Alice", Message: "hi"}, *first)

		second := recvEvent(t, cl)
		require.Equal(t, Event{Name: "Carl", Message: "hello"}, *second)
	}

	msgs, err := reg.Messages(sess.Room)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "Alice", msgs[0].Author)
	require.Equal(t, "hi", msgs[0].Text)
	require.Equal(t, "Carl", msgs[1].Author)
	require.Equal(t, "hello", msgs[1].Text)
}

func TestBroadcast_StaleRoomDropsSilently(t *testing.T) {
	core, reg := newTestCore(t)

	sess, err := core.ValidateCreate("Alice")
	require.NoError(t, err)

	alice := NewClient(newStubConn(), sess, "")
	core.Register(alice)
	recvEvent(t, alice)

	reg.DeleteRoom(sess.Room)

	core.Broadcast(alice, "into the void")
	requireNoEvent(t, alice)
}

func TestDisconnect_Lifecycle(t *testing.T) {
	core, reg := newTestCore(t)

	sess, err := core.ValidateCreate("Bob")
	require.NoError(t, err)

	bob := NewClient(newStubConn(), sess, "")
	core.Register(bob)
	recvEvent(t, bob)

	carlSess, err := core.ValidateJoin("Carl", sess.Room)
	require.NoError(t, err)
	carl := NewClient(newStubConn(), carlSess, "")
	core.Register(carl)
	recvEvent(t, bob)
	recvEvent(t, carl)

	core.Unregister(carl)

	ev := recvEvent(t, bob)
	require.Equal(t, "Carl", ev.Name)
	require.Equal(t, LeaveNoticeText, ev.Message)
	require.Equal(t, 1, members(t, reg, sess.Room))

	// Double disconnect is a no-op.
	core.Unregister(carl)
	require.Equal(t, 1, members(t, reg, sess.Room))

	core.Unregister(bob)
	require.Eventually(t, func() bool {
		return !reg.RoomExists(sess.Room)
	}, time.Second, 5*time.Millisecond)
}

func TestShutdown_DrainsClients(t *testing.T) {
	reg := registry.New(4)
	core := NewCore(reg, zap.NewNop().Sugar(), metrics.New(prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	go core.Run(ctx)

	sess, err := core.ValidateCreate("Alice")
	require.NoError(t, err)

	conn := newStubConn()
	cl := NewClient(conn, sess, "")
	core.Register(cl)
	recvEvent(t, cl)

	cancel()

	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)

	// Post-shutdown operations must not block.
	done := make(chan struct{})
	go func() {
		core.Broadcast(cl, "late")
		core.Unregister(cl)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("core operations blocked after shutdown")
	}
}
