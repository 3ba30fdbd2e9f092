package core

import (
	"sync"
	"time"
)

// Room groups connections subscribed to the same channel and retains a
// bounded message history. Every mutation happens under the room's own
// mutex so join/leave/append against the same room are linearized while
// distinct rooms proceed independently.
type Room struct {
	mu          sync.Mutex
	id          string
	name        string
	description string
	private     bool
	creator     Identity
	createdAt   time.Time
	members     map[string]struct{} // connection ids
	history     []Message
	deleted     bool
}

func newRoom(id, name, description string, private bool, creator Identity) *Room {
	return &Room{
		id:          id,
		name:        name,
		description: description,
		private:     private,
		creator:     creator,
		createdAt:   time.Now(),
		members:     make(map[string]struct{}),
	}
}

// info snapshots room metadata. Caller must hold r.mu.
func (r *Room) info() *RoomInfo {
	return &RoomInfo{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		Private:     r.private,
		Creator:     r.creator,
		CreatedAt:   r.createdAt,
		MemberCount: len(r.members),
	}
}

// summary builds the ListRooms entry. Caller must hold r.mu.
func (r *Room) summary() RoomSummary {
	return RoomSummary{
		ID:          r.id,
		Name:        r.name,
		Description: r.description,
		MemberCount: len(r.members),
		CreatedAt:   r.createdAt,
	}
}

// memberIDs copies the current member set. Caller must hold r.mu.
func (r *Room) memberIDs() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	return ids
}

// historyCopy copies the retained messages. Caller must hold r.mu.
func (r *Room) historyCopy() []Message {
	history := make([]Message, len(r.history))
	copy(history, r.history)
	return history
}

// append adds a message, trimming the oldest entry past the cap. A cap of
// zero or less disables retention. Caller must hold r.mu.
func (r *Room) append(msg Message, limit int) {
	if limit <= 0 {
		return
	}
	r.history = append(r.history, msg)
	if len(r.history) > limit {
		r.history = r.history[len(r.history)-limit:]
	}
}
