package ws

import (
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"relaychat/internal/domain"
)

// Client binds one persistent channel to a validated (room, name) session.
type Client struct {
	conn       Conn
	send       chan *Event
	ID         string
	Session    domain.ClientSession
	RemoteAddr string
}

func NewClient(conn Conn, session domain.ClientSession, remoteAddr string) *Client {
	return &Client{
		conn:       conn,
		send:       make(chan *Event, 64), // buffered to avoid dead-locks on slow clients
		ID:         uuid.NewString(),
		Session:    session,
		RemoteAddr: remoteAddr,
	}
}

// ReadPump relays inbound frames into the core until the transport closes,
// then detaches the client. Detach is the terminal state: the session is not
// reusable afterwards.
func (c *Client) ReadPump(core *Core) {
	defer func() {
		core.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				core.logger.Debugw("ws read error", "client_id", c.ID, "error", err)
			}
			break
		}

		core.Broadcast(c, frame.Data)
	}
}

// WritePump drains the outbound buffer onto the wire. The core closes the
// send channel on detach, which ends the pump.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			break
		}
	}
}
