package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/models"
	"aroti/services/tasks"

	"go.uber.org/zap"
)

// SessionCacheInvalidator drops cached session listings of a user.
type SessionCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// Service is the booking API the handlers and the worker call.
type Service struct {
	orchestrator *Orchestrator
	journal      RunJournal
	enqueuer     tasks.Enqueuer
	invalidator  SessionCacheInvalidator
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(orchestrator *Orchestrator, journal RunJournal, enqueuer tasks.Enqueuer, invalidator SessionCacheInvalidator, logger *zap.Logger) *Service {
	return &Service{
		orchestrator: orchestrator,
		journal:      journal,
		enqueuer:     enqueuer,
		invalidator:  invalidator,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Submit runs the booking to completion and returns its outcome.
func (s *Service) Submit(ctx context.Context, req models.BookingRequest) models.BookingOutcome {
	outcome := s.orchestrator.Run(ctx, req)
	// A failed run may still have written a pending session.
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(context.WithoutCancel(ctx), req.UserID)
	}
	return outcome
}

// Enqueue journals req as Started and hands it to the task queue. Enqueueing the same
// request twice queues it once; a session id already used for a different request is
// rejected with ErrSessionConflict.
func (s *Service) Enqueue(ctx context.Context, req models.BookingRequest) error {
	existing, err := s.journal.Get(ctx, req.SessionID)
	switch {
	case err == nil:
		if !sameBooking(existing, req) {
			return ErrSessionConflict
		}
		if terminal(existing) {
			return nil
		}
		// Started but possibly never queued: an earlier enqueue may have failed.
	case errors.Is(err, ErrRunNotFound):
		rec := &models.RunRecord{
			SessionID:    req.SessionID,
			UserID:       req.UserID,
			SpecialistID: req.SpecialistID,
			Date:         req.Date,
			Time:         req.Time,
			State:        StateStarted,
			Steps:        []string{StateStarted},
			UpdatedAt:    s.now(),
		}
		if err := s.journal.Record(ctx, rec); err != nil {
			return err
		}
	default:
		return err
	}

	task, opts, err := tasks.NewBookingRunTask(req)
	if err != nil {
		return fmt.Errorf("failed to build booking task: %w", err)
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task, opts...); err != nil {
		if tasks.IsDuplicate(err) {
			return nil
		}
		return fmt.Errorf("failed to enqueue booking %s: %w", req.SessionID, err)
	}
	s.logger.Info("Booking queued", zap.String("sessionID", req.SessionID))
	return nil
}

// Process is the worker's entry point. It fails when the run did not journal a terminal
// state, so the task is redelivered and the run resumes.
func (s *Service) Process(ctx context.Context, req models.BookingRequest) (models.BookingOutcome, error) {
	outcome := s.Submit(ctx, req)
	if outcome.ErrorKind == string(KindConflict) {
		return outcome, nil
	}
	rec, err := s.journal.Get(ctx, req.SessionID)
	if err != nil {
		return outcome, fmt.Errorf("booking %s finished without a journaled state: %w", req.SessionID, err)
	}
	if !terminal(rec) {
		return outcome, fmt.Errorf("booking %s journaled as %s", req.SessionID, rec.State)
	}
	return outcome, nil
}

// Status returns the journaled run when it belongs to userID.
func (s *Service) Status(ctx context.Context, sessionID, userID string) (*models.RunRecord, error) {
	rec, err := s.journal.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, ErrRunNotFound
	}
	return rec, nil
}

// IsRunNotFound reports whether err means the run is unknown to the caller.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}
