package ws

import (
	"context"

	"go.uber.org/zap"

	"relaychat/internal/domain"
	"relaychat/internal/infrastructure/metrics"
	"relaychat/internal/infrastructure/registry"
)

type inbound struct {
	client *Client
	text   string
}

// Core coordinates the connect/disconnect/broadcast lifecycle. A single
// goroutine owns the room groups and drains the three channels, so per-room
// delivery order equals processing order.
type Core struct {
	registry   *registry.Registry
	groups     *roomGroups
	register   chan *Client
	unregister chan *Client
	broadcast  chan *inbound
	done       chan struct{}
	logger     *zap.SugaredLogger
	metrics    *metrics.Metrics
}

func NewCore(reg *registry.Registry, logger *zap.SugaredLogger, m *metrics.Metrics) *Core {
	return &Core{
		registry:   reg,
		groups:     newRoomGroups(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *inbound, 256),
		done:       make(chan struct{}),
		logger:     logger,
		metrics:    m,
	}
}

// ValidateJoin binds a session to an existing room. It never mutates the
// registry.
func (c *Core) ValidateJoin(name, code string) (domain.ClientSession, error) {
	if name == "" {
		return domain.ClientSession{}, domain.ErrMissingName
	}
	if code == "" {
		return domain.ClientSession{}, domain.ErrMissingCode
	}
	if !c.registry.RoomExists(code) {
		return domain.ClientSession{}, domain.ErrRoomNotFound
	}

	return domain.ClientSession{Room: code, Name: name}, nil
}

// ValidateCreate allocates a fresh room and binds the session to it.
func (c *Core) ValidateCreate(name string) (domain.ClientSession, error) {
	if name == "" {
		return domain.ClientSession{}, domain.ErrMissingName
	}

	code, err := c.registry.CreateRoom()
	if err != nil {
		return domain.ClientSession{}, err
	}

	c.metrics.RoomsLive.Set(float64(c.registry.Len()))

	return domain.ClientSession{Room: code, Name: name}, nil
}

// Register attaches the client's channel to its room.
func (c *Core) Register(cl *Client) {
	select {
	case c.register <- cl:
	case <-c.done:
		_ = cl.conn.Close()
	}
}

// Unregister detaches the client; safe to call more than once.
func (c *Core) Unregister(cl *Client) {
	select {
	case c.unregister <- cl:
	case <-c.done:
	}
}

// Broadcast relays text from the client to every channel in its room.
func (c *Core) Broadcast(cl *Client, text string) {
	select {
	case c.broadcast <- &inbound{client: cl, text: text}:
	case <-c.done:
	}
}

// Run drives the lifecycle until ctx is cancelled, then drains every attached
// client.
func (c *Core) Run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case cl := <-c.register:
			c.onConnect(cl)
		case cl := <-c.unregister:
			c.onDisconnect(cl)
		case in := <-c.broadcast:
			c.onMessage(in)
		case <-ctx.Done():
			c.shutdown()
			return
		}
	}
}

// onConnect attaches the channel, echoes the join notice to the whole room
// (sender included), and bumps the member count. A session without a live
// room is never joined: the channel is closed and nothing is broadcast.
func (c *Core) onConnect(cl *Client) {
	sess := cl.Session
	if !sess.Valid() {
		close(cl.send)
		_ = cl.conn.Close()
		return
	}

	if err := c.registry.AddMember(sess.Room); err != nil {
		c.logger.Debugw("connect to dead room ignored", "room", sess.Room, "name", sess.Name)
		close(cl.send)
		_ = cl.conn.Close()
		return
	}

	c.groups.attach(cl)
	c.fanout(sess.Room, NewJoinNotice(sess.Name), kindJoin)

	c.metrics.ClientsAttached.Inc()
	c.logger.Infow("client joined room",
		"name", sess.Name,
		"room", sess.Room,
		"client_id", cl.ID,
		"remote_addr", cl.RemoteAddr,
	)
}

// onMessage fans the text out to every attached channel and appends it to the
// room history. A stale session whose room is gone drops silently.
func (c *Core) onMessage(in *inbound) {
	sess := in.client.Session
	if !c.registry.RoomExists(sess.Room) {
		return
	}

	msg := domain.NewMessage(sess.Name, in.text)
	c.fanout(sess.Room, NewChatEvent(msg.Author, msg.Text), kindChat)

	if err := c.registry.AppendMessage(sess.Room, msg); err != nil {
		c.logger.Warnw("history append failed", "room", sess.Room, "error", err)
	}

	c.logger.Debugw("message broadcast", "name", sess.Name, "room", sess.Room)
}

// onDisconnect detaches the channel, settles the member count (deleting the
// room when it drains), and tells the remaining channels. The leave notice is
// built unconditionally; with the room already gone the group is empty and the
// fan-out is a no-op.
func (c *Core) onDisconnect(cl *Client) {
	if !c.groups.detach(cl) {
		return
	}
	close(cl.send)

	sess := cl.Session
	deleted := c.registry.RemoveMember(sess.Room)
	c.fanout(sess.Room, NewLeaveNotice(sess.Name), kindLeave)

	c.metrics.ClientsAttached.Dec()
	if deleted {
		c.metrics.RoomsLive.Set(float64(c.registry.Len()))
	}

	c.logger.Infow("client left room",
		"name", sess.Name,
		"room", sess.Room,
		"client_id", cl.ID,
		"room_deleted", deleted,
	)
}

func (c *Core) fanout(code string, ev *Event, kind string) {
	for cl := range c.groups.get(code) {
		select {
		case cl.send <- ev:
			c.metrics.MessagesSent.WithLabelValues(kind).Inc()
		default:
			// Client is too slow – drop the message
			c.logger.Warnw("client buffer full, dropping message", "client_id", cl.ID)
		}
	}
}

func (c *Core) shutdown() {
	for _, cl := range c.groups.all() {
		c.groups.detach(cl)
		close(cl.send)
		_ = cl.conn.Close()
	}
	c.logger.Infow("coordinator stopped")
}
