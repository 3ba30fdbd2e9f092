package core

import (
	"context"
	"testing"
	"time"
)

func TestRouterWelcomeOnAttach(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	ev := mustEvent(t, alice.Events, EventWelcome)
	if ev.User.Name != "alice" {
		t.Fatalf("unexpected welcome event: %+v", ev)
	}
	if ev.ServerTime.IsZero() {
		t.Fatalf("welcome event missing server time")
	}
}

func TestRouterCreateJoinBroadcastAndLeave(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")

	roomID := env.createRoom(t, alice, "general")

	joined := env.joinRoom(t, bob, roomID)
	if joined.Room.Name != "general" || joined.Room.MemberCount != 2 {
		t.Fatalf("unexpected room-joined event: %+v", joined.Room)
	}

	// Alice, not Bob, sees the presence event.
	joinEv := mustEvent(t, alice.Events, EventUserJoined)
	if joinEv.User.Name != "bob" || joinEv.RoomID != roomID || joinEv.MemberCount != 2 {
		t.Fatalf("unexpected user-joined event: %+v", joinEv)
	}

	// A message fans out to every member including the sender.
	alice.Commands <- &Command{Kind: CommandSendMessage, Room: roomID, Text: "hi"}

	for _, c := range []*Client{alice, bob} {
		msgEv := mustEvent(t, c.Events, EventNewMessage)
		if msgEv.Message.Text != "hi" || msgEv.Message.Sender.Name != "alice" {
			t.Fatalf("unexpected message event for %s: %+v", c.ID, msgEv.Message)
		}
	}

	// Alice leaves; Bob sees user-left with the new count.
	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: roomID}
	leftEv := mustEvent(t, bob.Events, EventUserLeft)
	if leftEv.User.Name != "alice" || leftEv.MemberCount != 1 {
		t.Fatalf("unexpected user-left event: %+v", leftEv)
	}
}

func TestRouterSendWithoutJoinRejected(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")
	roomID := env.createRoom(t, alice, "private-ish")

	bob.Commands <- &Command{Kind: CommandSendMessage, Room: roomID, Text: "sneaky"}

	ev := mustEvent(t, bob.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotAMember {
		t.Fatalf("expected not_a_member error, got %+v", ev)
	}

	// The rejected send must not reach the room.
	mustNoEvent(t, alice.Events, EventNewMessage)
}

func TestRouterSendToUnknownRoomRejected(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	alice.Commands <- &Command{Kind: CommandSendMessage, Room: "ghost", Text: "hi"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestRouterEmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	roomID := env.createRoom(t, alice, "general")

	alice.Commands <- &Command{Kind: CommandSendMessage, Room: roomID, Text: "   \t "}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeEmptyContent {
		t.Fatalf("expected empty_content error, got %+v", ev)
	}
	mustNoEvent(t, alice.Events, EventNewMessage)
}

func TestRouterErrorsStayWithOriginator(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")
	roomID := env.createRoom(t, alice, "general")
	env.joinRoom(t, bob, roomID)

	bob.Commands <- &Command{Kind: CommandSendMessage, Room: "ghost", Text: "hi"}
	mustEvent(t, bob.Events, EventError)

	mustNoEvent(t, alice.Events, EventError)
}

func TestRouterRejoinIsIdempotent(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")
	roomID := env.createRoom(t, alice, "general")

	env.joinRoom(t, bob, roomID)
	mustEvent(t, alice.Events, EventUserJoined)

	// Rejoin returns a fresh snapshot but does not re-announce presence.
	rejoined := env.joinRoom(t, bob, roomID)
	if rejoined.Room.MemberCount != 2 {
		t.Fatalf("rejoin changed member count: %+v", rejoined.Room)
	}
	mustNoEvent(t, alice.Events, EventUserJoined)
}

func TestRouterListRooms(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	env.createRoom(t, alice, "first")
	env.createRoom(t, alice, "second")

	alice.Commands <- &Command{Kind: CommandListRooms}
	ev := mustEvent(t, alice.Events, EventRoomsList)

	if len(ev.Rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(ev.Rooms))
	}
	if ev.Rooms[0].Name != "first" || ev.Rooms[1].Name != "second" {
		t.Fatalf("rooms not ordered by creation time: %+v", ev.Rooms)
	}
}

func TestRouterDetachEmitsUserLeftPerRoom(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")
	carol := env.connect(t, "c", "carol")

	room1 := env.createRoom(t, bob, "one")
	room2 := env.createRoom(t, carol, "two")
	unrelated := env.createRoom(t, carol, "unrelated")
	_ = unrelated

	env.joinRoom(t, alice, room1)
	env.joinRoom(t, alice, room2)

	env.router.Detach(alice)

	leftEv := mustEvent(t, bob.Events, EventUserLeft)
	if leftEv.RoomID != room1 || leftEv.User.Name != "alice" {
		t.Fatalf("unexpected user-left for bob: %+v", leftEv)
	}

	leftEv = mustEvent(t, carol.Events, EventUserLeft)
	if leftEv.RoomID != room2 || leftEv.User.Name != "alice" {
		t.Fatalf("unexpected user-left for carol: %+v", leftEv)
	}

	// One event per room, nothing more.
	mustNoEvent(t, bob.Events, EventUserLeft)
	mustNoEvent(t, carol.Events, EventUserLeft)
}

func TestRouterDetachIsIdempotent(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	bob := env.connect(t, "b", "bob")
	roomID := env.createRoom(t, bob, "general")
	env.joinRoom(t, alice, roomID)

	env.router.Detach(alice)
	mustEvent(t, bob.Events, EventUserLeft)

	// A second detach of the same connection is a no-op.
	env.router.Detach(alice)
	mustNoEvent(t, bob.Events, EventUserLeft)
}

func TestRouterDuplicateConnectionRejected(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	env.connect(t, "dup", "alice")

	clone := NewClient("dup", Identity{UserID: "u2", Name: "mallory"})
	if err := env.router.Attach(clone); err == nil {
		t.Fatal("expected duplicate connection to be rejected")
	}
}

func TestRouterJoinAfterDetachDoesNotLeakMembership(t *testing.T) {
	env := newTestEnv(t, 50*time.Millisecond)

	alice := env.connect(t, "a", "alice")
	roomID := env.createRoom(t, alice, "general")

	// Bob gets no dispatcher goroutine so the disconnect interleaving can
	// be replayed by hand: deregistration first, then a join that was
	// already buffered when the connection died.
	bob := NewClient("b", Identity{UserID: "u-b", Name: "bob"})
	if err := env.router.Attach(bob); err != nil {
		t.Fatalf("attach bob: %v", err)
	}
	env.router.Detach(bob)
	env.router.dispatch(bob, &Command{Kind: CommandJoinRoom, Room: roomID})

	info, err := env.rooms.GetRoom(roomID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if info.MemberCount != 1 {
		t.Fatalf("room retains deregistered member: count=%d", info.MemberCount)
	}
	mustNoEvent(t, alice.Events, EventUserJoined)

	// The room must still be reapable once alice leaves.
	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: roomID}
	if !waitForDeletion(t, env.rooms, roomID, 2*time.Second) {
		t.Fatal("room was not reaped after the last live member left")
	}
}

func TestRouterCreateAfterDetachIsRolledBack(t *testing.T) {
	env := newTestEnv(t, 50*time.Millisecond)

	bob := NewClient("b", Identity{UserID: "u-b", Name: "bob"})
	if err := env.router.Attach(bob); err != nil {
		t.Fatalf("attach bob: %v", err)
	}
	env.router.Detach(bob)
	env.router.dispatch(bob, &Command{Kind: CommandCreateRoom, Name: "ghost town"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(env.rooms.ListRooms()) == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("room created by a dead connection was never reaped")
}

func TestRouterRunStopsDispatchingAfterCancel(t *testing.T) {
	env := newTestEnv(t, time.Minute)

	alice := env.connect(t, "a", "alice")
	roomID := env.createRoom(t, alice, "general")

	ctx, cancel := context.WithCancel(context.Background())
	bob := NewClient("b", Identity{UserID: "u-b", Name: "bob"})
	if err := env.router.Attach(bob); err != nil {
		t.Fatalf("attach bob: %v", err)
	}

	// Buffer the join, then cancel before the dispatcher runs. The
	// buffered command must never commit.
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: roomID}
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.router.Run(ctx, bob)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not exit after cancel")
	}
	env.router.Detach(bob)

	info, err := env.rooms.GetRoom(roomID)
	if err != nil {
		t.Fatalf("get room: %v", err)
	}
	if info.MemberCount != 1 {
		t.Fatalf("cancelled dispatcher still committed a join: count=%d", info.MemberCount)
	}
}
