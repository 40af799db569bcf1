package ws

// roomGroups maps a room code to the clients attached to it. Only the core
// loop touches it, so attach, detach, and fan-out are naturally sequenced and
// a broadcast never observes a half-attached channel.
type roomGroups struct {
	rooms map[string]map[*Client]struct{}
}

func newRoomGroups() *roomGroups {
	return &roomGroups{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (g *roomGroups) attach(cl *Client) {
	group, ok := g.rooms[cl.Session.Room]
	if !ok {
		group = make(map[*Client]struct{})
		g.rooms[cl.Session.Room] = group
	}

	group[cl] = struct{}{}
}

// detach reports whether the client was attached, so disconnects stay
// idempotent.
func (g *roomGroups) detach(cl *Client) bool {
	group, ok := g.rooms[cl.Session.Room]
	if !ok {
		return false
	}

	if _, attached := group[cl]; !attached {
		return false
	}

	delete(group, cl)
	if len(group) == 0 {
		delete(g.rooms, cl.Session.Room)
	}

	return true
}

func (g *roomGroups) get(code string) map[*Client]struct{} {
	return g.rooms[code]
}

func (g *roomGroups) all() []*Client {
	var clients []*Client
	for _, group := range g.rooms {
		for cl := range group {
			clients = append(clients, cl)
		}
	}

	return clients
}
