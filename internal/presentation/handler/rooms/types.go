package rooms

import "time"

type createRoomRequest struct {
	Name string `json:"name"`
}

type joinRoomRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// sessionResponse is the descriptor the client holds for the lifetime of its
// session; it is what the websocket endpoint expects back.
type sessionResponse struct {
	Room string `json:"room"`
	Name string `json:"name"`
}

type messageResponse struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

type roomResponse struct {
	Code     string            `json:"code"`
	Members  int               `json:"members"`
	Messages []messageResponse `json:"messages"`
}
