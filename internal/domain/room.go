package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingName  = errors.New("name is required")
	ErrMissingCode  = errors.New("room code is required")
	ErrRoomNotFound = errors.New("room not found")
)

// Room is owned exclusively by the registry; nothing outside it mutates
// Members or Messages.
type Room struct {
	Code     string    `json:"code"`
	Members  int       `json:"members"`
	Messages []Message `json:"messages"`
}

type Message struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

func NewMessage(author, text string) Message {
	return Message{
		Author: author,
		Text:   text,
		SentAt: time.Now(),
	}
}
