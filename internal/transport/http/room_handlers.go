package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/store"
)

// RoomHandlers provides read-only REST views over live room state and the
// message archive. Membership is only ever mutated through the websocket
// path.
type RoomHandlers struct {
	rooms   *core.RoomStore
	archive store.MessageArchive
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance. archive may be nil
// when persistence is disabled.
func NewRoomHandlers(rooms *core.RoomStore, archive store.MessageArchive, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms:   rooms,
		archive: archive,
		log:     logger,
	}
}

// RoomResponse represents a room in API responses. It exposes the member
// count, never the member list.
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsPrivate   bool   `json:"is_private"`
	MemberCount int    `json:"member_count"`
	CreatedAt   string `json:"created_at"`
}

// MessageResponse represents an archived message in API responses.
type MessageResponse struct {
	ID         string `json:"id"`
	RoomID     string `json:"room_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	CreatedAt  string `json:"created_at"`
}

// ListRooms handles listing all live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	summaries := h.rooms.ListRooms()

	response := make([]RoomResponse, 0, len(summaries))
	for _, room := range summaries {
		response = append(response, RoomResponse{
			ID:          room.ID,
			Name:        room.Name,
			Description: room.Description,
			MemberCount: room.MemberCount,
			CreatedAt:   room.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"rooms": response})
}

// GetRoom handles fetching a single room's metadata.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	info, err := h.rooms.GetRoom(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		ID:          info.ID,
		Name:        info.Name,
		Description: info.Description,
		IsPrivate:   info.Private,
		MemberCount: info.MemberCount,
		CreatedAt:   info.CreatedAt.Format(time.RFC3339),
	})
}

// ListMessages handles fetching archived messages for a room, newest first.
// GET /api/rooms/:id/messages?limit=50&before=RFC3339
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message archive is disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = parsed
	}

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before timestamp"})
			return
		}
		before = &parsed
	}

	messages, err := h.archive.ListMessages(c.Request.Context(), c.Param("id"), limit, before)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", c.Param("id")).Msg("failed to list archived messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:         msg.ID,
			RoomID:     msg.RoomID,
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			Body:       msg.Body,
			CreatedAt:  msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": response})
}
