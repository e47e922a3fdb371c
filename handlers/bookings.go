package handlers

import (
	"context"
	"errors"
	"net/http"

	"aroti/models"
	"aroti/services/booking"
	"aroti/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookingService runs bookings synchronously or through the task queue.
type BookingService interface {
	Submit(ctx context.Context, req models.BookingRequest) models.BookingOutcome
	Enqueue(ctx context.Context, req models.BookingRequest) error
	Status(ctx context.Context, sessionID, userID string) (*models.RunRecord, error)
}

type BookingHandler struct {
	bookings BookingService
	logger   *zap.Logger
}

func NewBookingHandler(bookings BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// bookingInput is the client's booking body. SessionID lets a client retry the same booking safely.
type bookingInput struct {
	SessionID    string `json:"sessionId"`
	SpecialistID string `json:"specialistId" binding:"required"`
	Date         string `json:"date" binding:"required"`
	Time         string `json:"time" binding:"required"`
}

// bind validates the body and builds the immutable request. It writes the error response itself.
func (h *BookingHandler) bind(c *gin.Context) (models.BookingRequest, bool) {
	logger := getLogger(c, h.logger)

	var in bookingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid booking request", err.Error())
		return models.BookingRequest{}, false
	}
	if !validDate(in.Date) {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid date", "expected YYYY-MM-DD")
		return models.BookingRequest{}, false
	}
	if !validClock(in.Time) {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid time", "expected HH:MM")
		return models.BookingRequest{}, false
	}
	if in.SessionID == "" {
		in.SessionID = uuid.New().String()
	} else if _, err := uuid.Parse(in.SessionID); err != nil {
		utils.JSONError(c, logger, http.StatusBadRequest, "Invalid sessionId", "expected a UUID")
		return models.BookingRequest{}, false
	}

	return models.BookingRequest{
		SessionID:    in.SessionID,
		SpecialistID: in.SpecialistID,
		UserID:       userID(c),
		Date:         in.Date,
		Time:         in.Time,
	}, true
}

// CreateSession handles POST /api/sessions: the booking runs to completion within the request.
func (h *BookingHandler) CreateSession(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	outcome := h.bookings.Submit(c.Request.Context(), req)
	c.JSON(outcomeStatus(outcome), outcome)
}

// SubmitBooking handles POST /api/bookings: the booking is queued and polled through GetBooking.
func (h *BookingHandler) SubmitBooking(c *gin.Context) {
	logger := getLogger(c, h.logger)
	req, ok := h.bind(c)
	if !ok {
		return
	}

	err := h.bookings.Enqueue(c.Request.Context(), req)
	if errors.Is(err, booking.ErrSessionConflict) {
		utils.JSONError(c, logger, http.StatusConflict, "Session id already used", req.SessionID)
		return
	}
	if err != nil {
		utils.JSONError(c, logger, http.StatusServiceUnavailable, "Failed to queue booking", err.Error())
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": req.SessionID})
}

// GetBooking handles GET /api/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	logger := getLogger(c, h.logger)
	id := c.Param("id")

	rec, err := h.bookings.Status(c.Request.Context(), id, userID(c))
	if booking.IsRunNotFound(err) {
		utils.JSONError(c, logger, http.StatusNotFound, "Booking not found", id)
		return
	}
	if err != nil {
		utils.JSONError(c, logger, http.StatusServiceUnavailable, "Failed to read booking status", err.Error())
		return
	}

	resp := gin.H{"run": rec}
	if rec.State == booking.StateCompleted || rec.State == booking.StateFailed {
		resp["outcome"] = booking.OutcomeOf(rec)
	}
	c.JSON(http.StatusOK, resp)
}

func outcomeStatus(outcome models.BookingOutcome) int {
	if outcome.Success {
		return http.StatusCreated
	}
	switch booking.Kind(outcome.ErrorKind) {
	case booking.KindBusinessNegative, booking.KindConflict:
		return http.StatusConflict
	case booking.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
