package core

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testEnv struct {
	registry *Registry
	rooms    *RoomStore
	reaper   *Reaper
	router   *Router
	ctx      context.Context
}

// newTestEnv builds an isolated core with no archive. grace controls the
// reaper's deletion delay.
func newTestEnv(t *testing.T, grace time.Duration) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	logger := zerolog.Nop()
	registry := NewRegistry()
	rooms := NewRoomStore(DefaultHistoryLimit)
	reaper := NewReaper(rooms, grace, &logger)
	rooms.SetLifecycle(reaper)
	t.Cleanup(reaper.Stop)

	return &testEnv{
		registry: registry,
		rooms:    rooms,
		reaper:   reaper,
		router:   NewRouter(registry, rooms, nil, &logger),
		ctx:      ctx,
	}
}

// connect registers a client and starts its dispatcher.
func (e *testEnv) connect(t *testing.T, connID, name string) *Client {
	t.Helper()

	c := NewClient(connID, Identity{UserID: "u-" + connID, Name: name})
	if err := e.router.Attach(c); err != nil {
		t.Fatalf("attach %s: %v", connID, err)
	}
	go e.router.Run(e.ctx, c)
	return c
}

// createRoom drives room creation through the dispatcher and returns the
// created room's id.
func (e *testEnv) createRoom(t *testing.T, c *Client, name string) string {
	t.Helper()

	c.Commands <- &Command{Kind: CommandCreateRoom, Name: name}
	ev := mustEvent(t, c.Events, EventRoomCreated)
	if ev.Room == nil {
		t.Fatalf("room-created event without room info")
	}
	return ev.Room.ID
}

// joinRoom drives a join through the dispatcher and waits for the snapshot.
func (e *testEnv) joinRoom(t *testing.T, c *Client, roomID string) *Event {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, Room: roomID}
	return mustEvent(t, c.Events, EventRoomJoined)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// mustNoEvent asserts the channel stays free of the given kind for a while.
func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}
