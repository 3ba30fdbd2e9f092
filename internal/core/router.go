package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Archiver is the persistence hook the router notifies after a message
// commits in memory. It is best-effort: the router never waits on it and
// its failures never surface to clients.
type Archiver interface {
	SaveMessage(ctx context.Context, msg *Message) error
}

const archiveTimeout = 5 * time.Second

// Router translates inbound client commands into registry/store mutations
// and fans resulting events out to the affected connections. One dispatcher
// goroutine per connection consumes its Commands channel; shared state is
// serialized inside the registry and the room store.
type Router struct {
	registry *Registry
	rooms    *RoomStore
	archive  Archiver
	log      *zerolog.Logger
}

// NewRouter wires the router. archive may be nil when persistence is off.
func NewRouter(registry *Registry, rooms *RoomStore, archive Archiver, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		rooms:    rooms,
		archive:  archive,
		log:      logger,
	}
}

// Attach registers the connection and greets it. A duplicate connection id
// is a transport-contract violation: logged, rejected, never ignored.
func (r *Router) Attach(c *Client) error {
	if err := r.registry.Register(c); err != nil {
		r.log.Error().Err(err).Str("conn_id", c.ID).Msg("connection rejected")
		return err
	}

	c.send(&Event{
		Kind:       EventWelcome,
		User:       c.Identity,
		ServerTime: time.Now(),
	})

	r.log.Info().Str("conn_id", c.ID).Str("user_id", c.Identity.UserID).Msg("connection registered")
	return nil
}

// Run dispatches the connection's commands until the context is cancelled.
// Once the context is done no further command is dispatched, even if some
// are still buffered.
func (r *Router) Run(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if ctx.Err() != nil {
				return
			}
			r.dispatch(c, cmd)
		case <-ctx.Done():
			return
		}
	}
}

// Detach removes the connection from every room it belonged to and emits
// presence events to the remaining members. The room store notifies the
// reaper about rooms emptied along the way. Idempotent, like the registry
// deregistration underneath.
func (r *Router) Detach(c *Client) {
	roomIDs := r.registry.Deregister(c.ID)
	for _, roomID := range roomIDs {
		memberCount, wasMember, remaining, err := r.rooms.Leave(roomID, c.ID)
		if err != nil || !wasMember {
			continue
		}

		r.fanout(remaining, &Event{
			Kind:        EventUserLeft,
			RoomID:      roomID,
			User:        c.Identity,
			MemberCount: memberCount,
		})
	}

	if len(roomIDs) > 0 {
		r.log.Info().Str("conn_id", c.ID).Int("rooms", len(roomIDs)).Msg("connection cleaned up")
	}
}

func (r *Router) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandCreateRoom:
		r.createRoom(c, cmd)
	case CommandJoinRoom:
		r.joinRoom(c, cmd.Room)
	case CommandLeaveRoom:
		r.leaveRoom(c, cmd.Room)
	case CommandSendMessage:
		r.sendMessage(c, cmd.Room, cmd.Text)
	case CommandListRooms:
		r.listRooms(c)
	default:
		c.send(&Event{Kind: EventError, Error: coreError(ErrCodeBadRequest, "unknown command")})
	}
}

func (r *Router) createRoom(c *Client, cmd *Command) {
	info, err := r.rooms.CreateRoom(cmd.Name, cmd.Description, cmd.Private, c.Identity, c.ID)
	if err != nil {
		c.send(&Event{Kind: EventError, Error: errorFor(err)})
		return
	}
	if !r.registry.trackJoin(c.ID, info.ID) {
		// The connection deregistered while the create was in flight; undo
		// the membership so the empty room gets reaped.
		r.rooms.Leave(info.ID, c.ID)
		return
	}

	c.send(&Event{Kind: EventRoomCreated, Room: info})
	r.log.Info().Str("room_id", info.ID).Str("name", info.Name).Str("creator", c.Identity.UserID).Msg("room created")
}

func (r *Router) joinRoom(c *Client, roomID string) {
	snapshot, others, alreadyMember, err := r.rooms.Join(roomID, c.ID)
	if err != nil {
		c.send(&Event{Kind: EventError, Error: errorFor(err)})
		return
	}
	if !r.registry.trackJoin(c.ID, roomID) {
		// The connection deregistered while the join was in flight; undo
		// the membership so the room never retains a dead connection.
		r.rooms.Leave(roomID, c.ID)
		return
	}

	c.send(&Event{
		Kind:    EventRoomJoined,
		Room:    snapshot.Info,
		RoomID:  roomID,
		History: snapshot.History,
	})

	if !alreadyMember {
		r.fanout(others, &Event{
			Kind:        EventUserJoined,
			RoomID:      roomID,
			User:        c.Identity,
			MemberCount: snapshot.Info.MemberCount,
		})
	}
}

func (r *Router) leaveRoom(c *Client, roomID string) {
	memberCount, wasMember, remaining, err := r.rooms.Leave(roomID, c.ID)
	if err != nil {
		c.send(&Event{Kind: EventError, Error: errorFor(err)})
		return
	}
	r.registry.trackLeave(c.ID, roomID)
	if !wasMember {
		return
	}

	r.fanout(remaining, &Event{
		Kind:        EventUserLeft,
		RoomID:      roomID,
		User:        c.Identity,
		MemberCount: memberCount,
	})
}

func (r *Router) sendMessage(c *Client, roomID, text string) {
	msg, members, err := r.rooms.AppendMessage(roomID, c.Identity, c.ID, text)
	if err != nil {
		c.send(&Event{Kind: EventError, Error: errorFor(err)})
		return
	}

	// The fan-out includes the sender: delivery is the single source of
	// truth, there is no local echo.
	r.fanout(members, &Event{
		Kind:    EventNewMessage,
		RoomID:  roomID,
		Message: msg,
	})

	if r.archive != nil {
		go r.archiveMessage(*msg)
	}
}

func (r *Router) archiveMessage(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := r.archive.SaveMessage(ctx, &msg); err != nil {
		r.log.Warn().Err(err).Str("message_id", msg.ID).Str("room_id", msg.RoomID).Msg("archive message")
	}
}

func (r *Router) listRooms(c *Client) {
	c.send(&Event{
		Kind:  EventRoomsList,
		Rooms: r.rooms.ListRooms(),
	})
}

func (r *Router) fanout(connIDs []string, ev *Event) {
	for _, recipient := range r.registry.resolve(connIDs) {
		recipient.send(ev)
	}
}
