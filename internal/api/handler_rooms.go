package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/mw"
	"room-turnover-backend/internal/store"
)

// Room actions accepted by the POST /api/rooms dispatcher.
const (
	actionOccupy        = "occupy"
	actionStartTurnover = "start_turnover"
	actionAdvanceStage  = "advance_stage"
)

// ListRooms handles GET /api/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.Rooms(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// OccupyRoom handles POST /api/rooms/:room_id/occupy.
func (h *Handler) OccupyRoom(c *gin.Context) {
	roomID, err := roomIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.occupy(c, roomID)
}

// StartTurnover handles POST /api/rooms/:room_id/turnovers.
func (h *Handler) StartTurnover(c *gin.Context) {
	roomID, err := roomIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.start(c, roomID)
}

type advanceRequest struct {
	CurrentStage string `json:"current_stage" binding:"required"`
}

// AdvanceStage handles POST /api/rooms/:room_id/turnovers/advance.
func (h *Handler) AdvanceStage(c *gin.Context) {
	roomID, err := roomIDParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: current_stage is required", ErrValidation))
		return
	}
	h.advance(c, roomID, req.CurrentStage)
}

type roomActionRequest struct {
	Action string `json:"action" binding:"required"`
	RoomID int64  `json:"room_id" binding:"required"`
	Stage  string `json:"stage"`
}

// RoomAction handles POST /api/rooms, dispatching on the action field.
func (h *Handler) RoomAction(c *gin.Context) {
	var req roomActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: action and room_id are required", ErrValidation))
		return
	}

	switch req.Action {
	case actionOccupy:
		h.occupy(c, req.RoomID)
	case actionStartTurnover:
		h.start(c, req.RoomID)
	case actionAdvanceStage:
		if req.Stage == "" {
			respondError(c, fmt.Errorf("%w: stage is required", ErrValidation))
			return
		}
		h.advance(c, req.RoomID, req.Stage)
	default:
		respondError(c, fmt.Errorf("%w: unknown action %q", ErrValidation, req.Action))
	}
}

func (h *Handler) occupy(c *gin.Context, roomID int64) {
	room, err := h.service.MarkOccupied(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "room marked occupied", "room": room})
}

func (h *Handler) start(c *gin.Context, roomID int64) {
	claims, ok := mw.GetClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "invalid_token"})
		return
	}

	t, err := h.service.Start(c.Request.Context(), roomID, claims.OperatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "turnover started", "turnover_id": t.ID})
}

func (h *Handler) advance(c *gin.Context, roomID int64, rawStage string) {
	claims, ok := mw.GetClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "invalid_token"})
		return
	}

	current, err := model.ParseStage(rawStage)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", store.ErrInvalidStage, err))
		return
	}

	res, err := h.service.Advance(c.Request.Context(), roomID, claims.OperatorID, current)
	if err != nil {
		respondError(c, err)
		return
	}

	message := fmt.Sprintf("stage advanced to %s", res.To)
	if res.Completed() {
		message = "turnover completed"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   message,
		"stage":     res.To,
		"completed": res.Completed(),
		"durations": store.DurationsOf(res.Turnover),
	})
}
