package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/auth"
	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatrelay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	reaper          *core.Reaper
	store           store.Store
	log             *zerolog.Logger
}

// archiveAdapter bridges the core's fire-and-forget persistence hook to the
// durable message archive.
type archiveAdapter struct {
	archive store.MessageArchive
}

func (a *archiveAdapter) SaveMessage(ctx context.Context, msg *core.Message) error {
	return a.archive.SaveMessage(ctx, &store.Message{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.Sender.UserID,
		SenderName: msg.Sender.Name,
		Body:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	})
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	registry := core.NewRegistry()
	rooms := core.NewRoomStore(cfg.HistoryLimit)
	reaper := core.NewReaper(rooms, cfg.RoomGracePeriod, logger)
	rooms.SetLifecycle(reaper)
	router := core.NewRouter(registry, rooms, &archiveAdapter{archive: st}, logger)

	server := transporthttp.NewServer(router, rooms, authService, st, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		reaper:          reaper,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup stops deletion timers and closes the database.
func (a *App) cleanup() {
	if a.reaper != nil {
		a.reaper.Stop()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
