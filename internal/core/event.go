package core

import "time"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventWelcome greets a freshly registered connection.
	EventWelcome EventKind = iota
	// EventRoomCreated confirms room creation to the creator.
	EventRoomCreated
	// EventRoomJoined delivers room metadata and history to a joiner.
	EventRoomJoined
	// EventUserJoined notifies members that a user joined their room.
	EventUserJoined
	// EventUserLeft notifies members that a user left their room.
	EventUserLeft
	// EventNewMessage notifies members about a chat message in a room.
	EventNewMessage
	// EventRoomsList delivers room summaries to the requester.
	EventRoomsList
	// EventError notifies the originating client about a domain error.
	EventError
)

// RoomInfo is the room metadata carried by room-created and room-joined
// events. Member ids are never exposed, only the count.
type RoomInfo struct {
	ID          string
	Name        string
	Description string
	Private     bool
	Creator     Identity
	CreatedAt   time.Time
	MemberCount int
}

// RoomSummary is a single entry of a rooms-list event.
type RoomSummary struct {
	ID          string
	Name        string
	Description string
	MemberCount int
	CreatedAt   time.Time
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind        EventKind
	Room        *RoomInfo
	RoomID      string
	User        Identity
	MemberCount int
	Message     *Message
	History     []Message     // EventRoomJoined
	Rooms       []RoomSummary // EventRoomsList
	ServerTime  time.Time     // EventWelcome
	Error       *CoreError    // EventError
}
