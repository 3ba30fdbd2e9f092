package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandCreateRoom creates a room and auto-joins the creator.
	CommandCreateRoom CommandKind = iota
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandSendMessage delivers a chat message to room members.
	CommandSendMessage
	// CommandListRooms requests a summary of all rooms.
	CommandListRooms
)

// Command represents an action requested by a client.
type Command struct {
	Kind        CommandKind
	Room        string // room id for join/leave/send
	Name        string // create-room
	Description string // create-room
	Private     bool   // create-room
	Text        string // send-message
}
