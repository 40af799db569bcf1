package ws

const (
	JoinNoticeText  = "has entered the room"
	LeaveNoticeText = "has left the room"
)

// broadcast kinds, used as the metrics label
const (
	kindChat  = "chat"
	kindJoin  = "join"
	kindLeave = "leave"
)
