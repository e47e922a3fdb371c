package handlers

import (
	"context"
	"errors"
	"net/http"

	sessionRepo "aroti/database/repository/session"
	"aroti/models"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionService reads and updates the calling user's sessions.
type SessionService interface {
	List(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error)
	Get(ctx context.Context, userID, id string) (*models.Session, error)
	Reschedule(ctx context.Context, userID, id, date, clock string) (*models.Session, error)
	Cancel(ctx context.Context, userID, id string) error
}

type SessionHandler struct {
	sessions SessionService
	logger   *zap.Logger
}

func NewSessionHandler(sessions SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// ListSessions handles GET /api/sessions?status=.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	logger := getLogger(c, h.logger)

	status := models.SessionStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid status", string(status))
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), userID(c), status)
	if err != nil {
		utils.JSONError(c, logger, http.StatusInternalServerError, "Failed to list sessions", err.Error())
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

type rescheduleRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// RescheduleSession handles PUT /api/sessions/:id. Omitted fields keep their current value.
func (h *SessionHandler) RescheduleSession(c *gin.Context) {
	logger := getLogger(c, h.logger)

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Date != "" && !validDate(req.Date) {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid date", "expected YYYY-MM-DD")
		return
	}
	if req.Time != "" && !validClock(req.Time) {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid time", "expected HH:MM")
		return
	}

	session, err := h.sessions.Reschedule(c.Request.Context(), userID(c), c.Param("id"), req.Date, req.Time)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CancelSession handles DELETE /api/sessions/:id.
func (h *SessionHandler) CancelSession(c *gin.Context) {
	if err := h.sessions.Cancel(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) sessionError(c *gin.Context, err error) {
	logger := getLogger(c, h.logger)
	switch {
	case errors.Is(err, sessionRepo.ErrNotFound):
		utils.JSONError(c, logger, http.StatusNotFound, "Session not found", c.Param("id"))
	case errors.Is(err, sessionRepo.ErrSlotTaken):
		utils.JSONError(c, logger, http.StatusConflict, "Slot already booked", err.Error())
	case errors.Is(err, sessionRepo.ErrNotActive):
		utils.JSONError(c, logger, http.StatusConflict, "Session can no longer be changed", err.Error())
	default:
		utils.JSONError(c, logger, http.StatusInternalServerError, "Session operation failed", err.Error())
	}
}
