package registry

import (
	"crypto/rand"
	"math/big"
	"strings"
	"sync"

	"relaychat/internal/domain"
)

const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var charsetLen = big.NewInt(int64(len(codeChars)))

// Registry owns every live room. All mutation of a Room's members counter and
// message history goes through here, under one lock, so decrement-then-delete
// stays atomic with respect to concurrent joins and disconnects.
type Registry struct {
	rooms      map[string]*domain.Room
	codeLength int
	mu         sync.RWMutex
}

func New(codeLength int) *Registry {
	if codeLength <= 0 {
		codeLength = 4
	}

	return &Registry{
		rooms:      make(map[string]*domain.Room),
		codeLength: codeLength,
	}
}

func randomCode(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeChars[n.Int64()])
	}

	return sb.String(), nil
}

// uniqueCodeLocked loops until it draws a code with no live room. The loop is
// unbounded: with 26^4 codes against a handful of live rooms a collision is
// rare, and a freed code becomes eligible again the moment its room is deleted.
func (r *Registry) uniqueCodeLocked() (string, error) {
	for {
		code, err := randomCode(r.codeLength)
		if err != nil {
			return "", err
		}
		if _, exists := r.rooms[code]; !exists {
			return code, nil
		}
	}
}

// GenerateCode draws a code that is not a live room at the time of the call.
// CreateRoom should be preferred: it generates and inserts under one lock.
func (r *Registry) GenerateCode() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.uniqueCodeLocked()
}

// CreateRoom inserts a fresh empty room and returns its code.
func (r *Registry) CreateRoom() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.uniqueCodeLocked()
	if err != nil {
		return "", err
	}

	r.rooms[code] = &domain.Room{Code: code}
	return code, nil
}

func (r *Registry) RoomExists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.rooms[code]
	return exists
}

// GetRoom returns a snapshot of the room. Callers never see the live record;
// mutation happens only through registry operations.
func (r *Registry) GetRoom(code string) (domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return domain.Room{}, domain.ErrRoomNotFound
	}

	snapshot := domain.Room{
		Code:     room.Code,
		Members:  room.Members,
		Messages: make([]domain.Message, len(room.Messages)),
	}
	copy(snapshot.Messages, room.Messages)

	return snapshot, nil
}

// DeleteRoom removes the room; no-op if already absent.
func (r *Registry) DeleteRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, code)
}

// AddMember increments the room's member count.
func (r *Registry) AddMember(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists {
		return domain.ErrRoomNotFound
	}

	room.Members++
	return nil
}

// RemoveMember decrements the member count and deletes the room once it drops
// to zero or below. Returns whether this call deleted the room. Calling it on
// a room that is already gone is a no-op.
func (r *Registry) RemoveMember(code string) (deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists {
		return false
	}

	room.Members--
	if room.Members <= 0 {
		delete(r.rooms, code)
		return true
	}

	return false
}

// AppendMessage appends to the room's history, preserving insertion order.
func (r *Registry) AppendMessage(code string, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[code]
	if !exists {
		return domain.ErrRoomNotFound
	}

	room.Messages = append(room.Messages, msg)
	return nil
}

// Messages returns a copy of the room's history.
func (r *Registry) Messages(code string) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, exists := r.rooms[code]
	if !exists {
		return nil, domain.ErrRoomNotFound
	}

	cpy := make([]domain.Message, len(room.Messages))
	copy(cpy, room.Messages)

	return cpy, nil
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
