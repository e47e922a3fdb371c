package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	specialistRepo "aroti/database/repository/specialist"
)

// SessionWriter creates the session row of a booking. Create is idempotent on the session id.
type SessionWriter struct {
	specialists specialistRepo.SpecialistRepository
	sessions    sessionRepo.SessionRepository
	now         func() time.Time
}

func NewSessionWriter(specialists specialistRepo.SpecialistRepository, sessions sessionRepo.SessionRepository) *SessionWriter {
	return &SessionWriter{
		specialists: specialists,
		sessions:    sessions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a pending session priced at the specialist's current price. A session that
// already exists under req.SessionID is returned as is when it is the same booking, and
// rejected with ErrSessionConflict otherwise.
func (w *SessionWriter) Create(ctx context.Context, req models.BookingRequest) (*models.SessionSnapshot, error) {
	existing, err := w.sessions.GetByID(ctx, req.SessionID)
	if err == nil {
		if !sessionMatches(existing, req) {
			return nil, Permanent(ErrSessionConflict)
		}
		return snapshotOf(existing), nil
	}
	if !errors.Is(err, sessionRepo.ErrNotFound) {
		return nil, err
	}

	specialist, err := w.specialists.GetByID(ctx, req.SpecialistID)
	if errors.Is(err, specialistRepo.ErrNotFound) {
		return nil, Permanent(fmt.Errorf("%w: %s", ErrSpecialistNotFound, req.SpecialistID))
	}
	if err != nil {
		return nil, err
	}

	now := w.now()
	stored, err := w.sessions.Upsert(ctx, &models.Session{
		ID:              req.SessionID,
		SpecialistID:    req.SpecialistID,
		UserID:          req.UserID,
		SpecialistName:  specialist.Name,
		SpecialistPhoto: specialist.Photo,
		Specialty:       specialist.Specialty,
		Date:            req.Date,
		Time:            req.Time,
		Duration:        models.DefaultSessionDuration,
		Price:           specialist.Price,
		Status:          models.SessionPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if errors.Is(err, sessionRepo.ErrSlotTaken) {
		return nil, Permanent(ErrNotAvailable)
	}
	if err != nil {
		return nil, err
	}
	return snapshotOf(stored), nil
}

func snapshotOf(s *models.Session) *models.SessionSnapshot {
	return &models.SessionSnapshot{
		SessionID:      s.ID,
		SpecialistName: s.SpecialistName,
		Date:           s.Date,
		Time:           s.Time,
	}
}
