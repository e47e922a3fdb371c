// Package sessions is the user-facing read and update API over booked sessions.
package sessions

import (
	"context"
	"errors"
	"time"

	"aroti/metrics"
	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	"aroti/services/cache"

	"go.uber.org/zap"
)

// ReminderScheduler queues the pre-session reminder for a slot.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, userID string, session models.SessionSnapshot) error
}

// Service scopes every operation to the calling user. Sessions of other users read as not found.
type Service struct {
	repo      sessionRepo.SessionRepository
	cache     *cache.JSONCache
	ttl       time.Duration
	reminders ReminderScheduler
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewService builds the service. reminders may be nil.
func NewService(repo sessionRepo.SessionRepository, c *cache.JSONCache, ttl time.Duration, reminders ReminderScheduler, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, reminders: reminders, metrics: m, logger: logger}
}

// List returns the user's sessions by date and time. Only the unfiltered listing is cached.
func (s *Service) List(ctx context.Context, userID string, status models.SessionStatus) ([]models.Session, error) {
	if status != "" {
		return s.repo.ListByUser(ctx, userID, status)
	}

	key := cache.UserSessionsKey(userID)
	var out []models.Session
	err := s.cache.GetJSON(ctx, key, &out)
	if err == nil {
		s.metrics.CacheLookup("sessions", "hit")
		return out, nil
	}
	if errors.Is(err, cache.ErrMiss) {
		s.metrics.CacheLookup("sessions", "miss")
	} else {
		s.metrics.CacheLookup("sessions", "error")
		s.logger.Warn("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
	}

	out, err = s.repo.ListByUser(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, key, out, s.ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, sessionRepo.ErrNotFound
	}
	return session, nil
}

// Reschedule moves an active session. Empty date or time keep the current value.
func (s *Service) Reschedule(ctx context.Context, userID, id, date, clock string) (*models.Session, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = current.Date
	}
	if clock == "" {
		clock = current.Time
	}
	if date == current.Date && clock == current.Time {
		return current, nil
	}

	updated, err := s.repo.Reschedule(ctx, id, date, clock)
	if err != nil {
		return nil, err
	}
	s.InvalidateUser(ctx, userID)
	s.logger.Info("Session rescheduled", zap.String("sessionID", id), zap.String("slot", date+" "+clock))

	// The reminder for the old slot is dropped at delivery time.
	if s.reminders != nil {
		snap := models.SessionSnapshot{SessionID: updated.ID, SpecialistName: updated.SpecialistName, Date: updated.Date, Time: updated.Time}
		if err := s.reminders.ScheduleReminder(ctx, userID, snap); err != nil {
			s.logger.Warn("Failed to schedule reminder for new slot", zap.String("sessionID", id), zap.Error(err))
		}
	}
	return updated, nil
}

// Cancel marks the session cancelled, which frees its slot.
func (s *Service) Cancel(ctx context.Context, userID, id string) error {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if current.Status == models.SessionCancelled {
		return nil
	}
	if _, err := s.repo.UpdateStatus(ctx, id, models.SessionCancelled); err != nil {
		return err
	}
	s.InvalidateUser(ctx, userID)
	s.logger.Info("Session cancelled", zap.String("sessionID", id))
	return nil
}

// InvalidateUser drops the user's cached listing.
func (s *Service) InvalidateUser(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.UserSessionsKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate session cache", zap.String("userID", userID), zap.Error(err))
	}
}
