package core

import "time"

// Message is the domain model for a chat message. The sender identity is a
// snapshot taken at send time, so a later identity change never rewrites
// history. Messages are immutable once appended.
type Message struct {
	ID        string
	RoomID    string
	Sender    Identity
	Text      string
	CreatedAt time.Time
}
