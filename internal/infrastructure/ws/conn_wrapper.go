package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn is the transport seam between the coordinator and whatever carries the
// persistent channel. Production uses gorilla/websocket; tests use a stub.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// connWrapper serializes writes; gorilla connections allow one concurrent
// writer only. Reads stay unguarded, the read pump is the sole reader.
type connWrapper struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func NewConn(c *websocket.Conn) Conn {
	return &connWrapper{conn: c}
}

func (w *connWrapper) ReadJSON(v any) error {
	return w.conn.ReadJSON(v)
}

func (w *connWrapper) WriteJSON(v any) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *connWrapper) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
