package ws

// Frame is the single client→server message shape: the text the client wants
// relayed to its room.
type Frame struct {
	Data string `json:"data"`
}

// Event is the server→client broadcast shape, shared by chat messages and the
// synthetic join/leave notices.
type Event struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func NewChatEvent(author, text string) *Event {
	return &Event{
		Name:    author,
		Message: text,
	}
}

func NewJoinNotice(name string) *Event {
	return &Event{
		Name:    name,
		Message: JoinNoticeText,
	}
}

func NewLeaveNotice(name string) *Event {
	return &Event{
		Name:    name,
		Message: LeaveNoticeText,
	}
}
