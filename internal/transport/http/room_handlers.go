package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/courtlive/courtroom-server/internal/core"
	"github.com/courtlive/courtroom-server/internal/store"
)

// RoomHandlers provides HTTP handlers for the lobby, room history and the
// bot battle control surface.
type RoomHandlers struct {
	hub   *core.Hub
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub *core.Hub, st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// ListOpenRooms returns the rooms currently waiting for a second seat.
// GET /api/rooms/open
func (h *RoomHandlers) ListOpenRooms(c *gin.Context) {
	rooms := h.hub.ListJoinable()
	if rooms == nil {
		rooms = []core.OpenRoom{}
	}
	c.JSON(http.StatusOK, rooms)
}

// HistoryMessage is one chat line of a persisted room history.
type HistoryMessage struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	User      string `json:"user"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// HistoryAction is one action record of a persisted room history.
type HistoryAction struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	User      string `json:"user"`
	Kind      string `json:"kind"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// HistoryResponse is the merged, time-ordered history of a finished room.
type HistoryResponse struct {
	RoomID int64 `json:"roomId"`
	Items  []any `json:"items"`
}

// RoomHistory returns the persisted history of a room.
// GET /api/rooms/:id/history
func (h *RoomHandlers) RoomHistory(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid room id"})
		return
	}

	if _, err := h.store.GetRoomByID(c.Request.Context(), roomID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	items, err := h.store.FetchRoomHistory(c.Request.Context(), roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to fetch room history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := HistoryResponse{RoomID: roomID, Items: make([]any, 0, len(items))}
	for _, item := range items {
		if item.Message != nil {
			resp.Items = append(resp.Items, HistoryMessage{
				ID:        item.Message.ID,
				UserID:    item.Message.UserID,
				User:      item.Message.Username,
				Text:      item.Message.Text,
				Timestamp: item.Message.Timestamp.UnixMilli(),
			})
			continue
		}
		resp.Items = append(resp.Items, HistoryAction{
			ID:        item.Action.ID,
			UserID:    item.Action.UserID,
			User:      item.Action.Username,
			Kind:      string(item.Action.Kind),
			Payload:   rawPayload(item.Action.Payload),
			Timestamp: item.Action.CreatedAt.UnixMilli(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func rawPayload(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}

// FeedBattleRequest carries one operator-side debate line.
type FeedBattleRequest struct {
	Message string `json:"message" binding:"required"`
}

// StartBattle seats the automated opponent in a room.
// POST /api/battle/:room/start
func (h *RoomHandlers) StartBattle(c *gin.Context) {
	h.battleCommand(c, &core.Command{Kind: core.CommandStartBotBattle, Room: c.Param("room")})
}

// FeedBattle injects one operator line and requests the opponent's reply.
// POST /api/battle/:room/feed
func (h *RoomHandlers) FeedBattle(c *gin.Context) {
	var req FeedBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	h.battleCommand(c, &core.Command{Kind: core.CommandFeedBotBattle, Room: c.Param("room"), Text: req.Message})
}

// EndBattle stops the battle and requests a judgement.
// POST /api/battle/:room/end
func (h *RoomHandlers) EndBattle(c *gin.Context) {
	h.battleCommand(c, &core.Command{Kind: core.CommandEndBotBattle, Room: c.Param("room")})
}

// battleCommand round-trips one control command through the session loop and
// maps its outcome to an HTTP status.
func (h *RoomHandlers) battleCommand(c *gin.Context, cmd *core.Command) {
	cmd.Reply = make(chan error, 1)
	h.hub.Submit(cmd)

	select {
	case err := <-cmd.Reply:
		if err == nil {
			c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
			return
		}
		var coreErr *core.CoreError
		if errors.As(err, &coreErr) {
			c.JSON(battleStatus(coreErr.Code), ErrorResponse{Error: coreErr.Message})
			return
		}
		h.log.Error().Err(err).Str("room", cmd.Room).Msg("battle command failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	case <-time.After(10 * time.Second):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "session loop did not respond"})
	}
}

func battleStatus(code string) int {
	switch code {
	case core.ErrCodeRoomNotFound:
		return http.StatusNotFound
	case core.ErrCodeBadRequest:
		return http.StatusBadRequest
	case core.ErrCodeBotBattleState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
