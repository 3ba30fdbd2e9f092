package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/chatrelay/internal/auth"
	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/log"
	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/sqlite"
)

// coreArchiveAdapter mirrors the app-level bridge between the core's
// persistence hook and the message archive, for tests that exercise the
// full stack.
type coreArchiveAdapter struct {
	archive store.MessageArchive
}

func (a *coreArchiveAdapter) SaveMessage(ctx context.Context, msg *core.Message) error {
	return a.archive.SaveMessage(ctx, &store.Message{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.Sender.UserID,
		SenderName: msg.Sender.Name,
		Body:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	})
}

// startTestServer wires an in-memory stack and returns the running test
// server plus the auth service for issuing tokens.
func startTestServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.Nop()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	registry := core.NewRegistry()
	rooms := core.NewRoomStore(core.DefaultHistoryLimit)
	reaper := core.NewReaper(rooms, time.Minute, logger)
	rooms.SetLifecycle(reaper)
	t.Cleanup(reaper.Stop)
	router := core.NewRouter(registry, rooms, &coreArchiveAdapter{archive: st}, logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	server := NewServer(router, rooms, authService, st, cfg, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService
}
