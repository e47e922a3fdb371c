package sessionRepo

import (
	"context"
	"errors"
	"time"

	"aroti/models"
)

var (
	// ErrNotFound is returned when no session carries the requested id.
	ErrNotFound = errors.New("session not found")
	// ErrSlotTaken is returned when a write would leave two active sessions on one slot.
	ErrSlotTaken = errors.New("slot already booked")
	// ErrNotActive is returned when rescheduling a completed or cancelled session.
	ErrNotActive = errors.New("session is not active")
)

// SessionRepository is the session storage. Every implementation enforces that at most one
// session in an active status exists per (specialist, date, time).
type SessionRepository interface {
	// Upsert inserts s unless a session with the same id exists, in which case the stored
	// session is returned unchanged.
	Upsert(ctx context.Context, s *models.Session) (*models.Session, error)
	// FindBySlot returns (nil, nil) when no session on the slot has one of statuses.
	FindBySlot(ctx context.Context, specialistID, date, clock string, statuses ...models.SessionStatus) (*models.Session, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// ListByUser orders by date then time. An empty status lists every status.
	ListByUser(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error)
	Reschedule(ctx context.Context, id, date, clock string) (*models.Session, error)
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) (*models.Session, error)
	AttachMeetingLink(ctx context.Context, id, link string) error
	// ListPendingWithoutLink returns pending sessions with no meeting link created before the cutoff.
	ListPendingWithoutLink(ctx context.Context, createdBefore time.Time, limit int) ([]models.Session, error)
}
