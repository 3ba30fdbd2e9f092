package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/auth"
	"github.com/vovakirdan/chatrelay/internal/config"
	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/store"
)

// NewServer builds the HTTP server: auth endpoints, read-only room API,
// health check, and the websocket upgrade path.
func NewServer(router *core.Router, rooms *core.RoomStore, authService *auth.Service, archive store.MessageArchive, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	authGroup := engine.Group("/api/auth")
	{
		authGroup.POST("/register", apiHandlers.Register)
		authGroup.POST("/login", apiHandlers.Login)
		authGroup.POST("/guest", apiHandlers.Guest)
	}

	roomHandlers := NewRoomHandlers(rooms, archive, logger)
	roomGroup := engine.Group("/api/rooms")
	roomGroup.Use(AuthMiddleware(authService, logger))
	{
		roomGroup.GET("", roomHandlers.ListRooms)
		roomGroup.GET("/:id", roomHandlers.GetRoom)
		roomGroup.GET("/:id/messages", roomHandlers.ListMessages)
	}

	wsHandler := NewWSHandler(router, authService, cfg.AllowAnonymous, logger)
	engine.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
