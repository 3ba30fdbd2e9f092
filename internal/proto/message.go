package proto

import "encoding/json"

const (
	ProtocolVersion = 1

	InboundTypeCreateRoom = "create_room"
	InboundTypeJoin       = "join"
	InboundTypeLeave      = "leave"
	InboundTypeMsg        = "msg"
	InboundTypeListRooms  = "list_rooms"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventTypeWelcome     = "welcome"
	EventTypeRoomCreated = "room_created"
	EventTypeRoomJoined  = "room_joined"
	EventTypeUserJoined  = "user_joined"
	EventTypeUserLeft    = "user_left"
	EventTypeNewMessage  = "message"
	EventTypeRoomsList   = "rooms_list"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// CreateRoomData requests a new room.
type CreateRoomData struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private,omitempty"`
}

// JoinData requests to join (or leave) a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserRef identifies a user in outbound events.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventWelcome greets a freshly connected client.
type EventWelcome struct {
	User       UserRef `json:"user"`
	ServerTime int64   `json:"server_time"`
	Protocol   int     `json:"protocol"`
}

// RoomData describes a room in outbound events.
type RoomData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	IsPrivate   bool    `json:"is_private"`
	Creator     UserRef `json:"creator"`
	CreatedAt   int64   `json:"created_at"`
	MemberCount int     `json:"member_count"`
}

// RoomSummaryData is a single entry of a rooms_list event. It carries
// member counts only, never member ids.
type RoomSummaryData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"member_count"`
	CreatedAt   int64  `json:"created_at"`
}

// EventRoomCreated confirms room creation to the creator.
type EventRoomCreated struct {
	Room RoomData `json:"room"`
}

// EventRoomJoined delivers room metadata and history to a joiner.
type EventRoomJoined struct {
	Room        RoomData       `json:"room"`
	History     []EventMessage `json:"history"`
	MemberCount int            `json:"member_count"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room        string  `json:"room"`
	User        UserRef `json:"user"`
	MemberCount int     `json:"member_count"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room        string  `json:"room"`
	User        UserRef `json:"user"`
	MemberCount int     `json:"member_count"`
}

// EventMessage is a chat message delivered to room members.
type EventMessage struct {
	ID   string  `json:"id"`
	Room string  `json:"room"`
	From UserRef `json:"from"`
	Text string  `json:"text"`
	TS   int64   `json:"ts"`
}

// EventRoomsList delivers room summaries to the requester.
type EventRoomsList struct {
	Rooms []RoomSummaryData `json:"rooms"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
