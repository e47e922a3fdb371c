package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aroti/metrics"
	"aroti/models"
	sessionRepo "aroti/database/repository/session"

	"go.uber.org/zap"
)

const (
	stepCheckAvailability = "check_availability"
	stepCreateSession     = "create_session"
	stepSendConfirmation  = "send_confirmation"
	stepScheduleReminder  = "schedule_reminder"
	stepProvisionLink     = "provision_link"
)

// NotificationDispatcher performs the best-effort side effects of a booking.
type NotificationDispatcher interface {
	SendConfirmation(ctx context.Context, userID string, session models.SessionSnapshot) error
	ScheduleReminder(ctx context.Context, userID string, session models.SessionSnapshot) error
}

type availabilityChecker interface {
	Check(ctx context.Context, specialistID, date, clock string) (bool, error)
}

type sessionCreator interface {
	Create(ctx context.Context, req models.BookingRequest) (*models.SessionSnapshot, error)
}

// OrchestratorDeps wires an Orchestrator.
type OrchestratorDeps struct {
	Availability availabilityChecker
	Writer       sessionCreator
	Sessions     sessionRepo.SessionRepository
	Links        LinkProvisioner
	Notifier     NotificationDispatcher
	Executor     StepExecutor
	Journal      RunJournal
	StepPolicy   RetryPolicy
	NotifyPolicy RetryPolicy
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Orchestrator runs one booking from Started to Completed or Failed.
type Orchestrator struct {
	deps OrchestratorDeps
	now  func() time.Time
}

func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// Run drives req to a terminal state and returns its outcome. The run ignores cancellation of
// ctx once started. A run already journaled as terminal returns the recorded outcome; a run
// journaled mid-way resumes after its last confirmed step.
func (o *Orchestrator) Run(ctx context.Context, req models.BookingRequest) models.BookingOutcome {
	ctx = context.WithoutCancel(ctx)
	logger := o.deps.Logger.With(
		zap.String("sessionID", req.SessionID),
		zap.String("specialistID", req.SpecialistID),
		zap.String("slot", req.Date+" "+req.Time),
	)

	run, ok := o.load(ctx, req, logger)
	if !ok {
		// The session id belongs to another booking; leave its records untouched.
		o.deps.Metrics.BookingOutcome(string(KindConflict))
		logger.Warn("Session id reused for a different booking", zap.String("userID", req.UserID))
		return models.BookingOutcome{SessionID: req.SessionID, Error: ErrSessionConflict.Error(), ErrorKind: string(KindConflict)}
	}
	if terminal(run) {
		logger.Info("Booking run already finished", zap.String("state", run.State))
		return OutcomeOf(run)
	}
	if !reached(run, StateStarted) {
		o.transition(ctx, run, StateStarted, logger)
	}

	if !reached(run, StateAvailabilityChecked) {
		var available bool
		err := o.deps.Executor.Execute(ctx, stepCheckAvailability, o.deps.StepPolicy, func(ctx context.Context) error {
			ok, err := o.deps.Availability.Check(ctx, req.SpecialistID, req.Date, req.Time)
			available = ok
			return err
		})
		if err != nil {
			return o.fail(ctx, run, KindTransient, err, logger)
		}
		if !available && !o.heldBy(ctx, req) {
			return o.fail(ctx, run, KindBusinessNegative, ErrNotAvailable, logger)
		}
		o.transition(ctx, run, StateAvailabilityChecked, logger)
	}

	var snapshot *models.SessionSnapshot
	err := o.deps.Executor.Execute(ctx, stepCreateSession, o.deps.StepPolicy, func(ctx context.Context) error {
		s, err := o.deps.Writer.Create(ctx, req)
		if err != nil {
			return err
		}
		snapshot = s
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotAvailable):
		return o.fail(ctx, run, KindBusinessNegative, ErrNotAvailable, logger)
	case errors.Is(err, ErrSessionConflict):
		return o.fail(ctx, run, KindConflict, ErrSessionConflict, logger)
	case errors.Is(err, ErrSpecialistNotFound):
		return o.fail(ctx, run, KindNotFound, err, logger)
	default:
		return o.fail(ctx, run, KindTransient, err, logger)
	}
	if !reached(run, StateSessionCreated) {
		o.transition(ctx, run, StateSessionCreated, logger)
	}

	// Side effects are enqueued under unique task ids, so re-dispatching on resume is harmless.
	snap := *snapshot
	o.deps.Executor.Detach(ctx, stepSendConfirmation, o.deps.NotifyPolicy, func(ctx context.Context) error {
		return o.deps.Notifier.SendConfirmation(ctx, req.UserID, snap)
	})
	o.deps.Executor.Detach(ctx, stepScheduleReminder, o.deps.NotifyPolicy, func(ctx context.Context) error {
		return o.deps.Notifier.ScheduleReminder(ctx, req.UserID, snap)
	})

	var link string
	err = o.deps.Executor.Execute(ctx, stepProvisionLink, o.deps.StepPolicy, func(ctx context.Context) error {
		l, err := o.deps.Links.Provision(ctx, req.SessionID)
		if err != nil {
			return err
		}
		if err := o.deps.Sessions.AttachMeetingLink(ctx, req.SessionID, l); err != nil {
			return err
		}
		link = l
		return nil
	})
	if err != nil {
		return o.fail(ctx, run, KindPartialSuccess, fmt.Errorf("link provisioning failed: %w", cause(err)), logger)
	}
	run.MeetingLink = link
	o.transition(ctx, run, StateLinkProvisioned, logger)
	o.transition(ctx, run, StateCompleted, logger)

	o.deps.Metrics.BookingOutcome("completed")
	logger.Info("Booking completed", zap.String("meetingLink", link))
	return models.BookingOutcome{Success: true, SessionID: req.SessionID, MeetingLink: link}
}

// load returns the journaled run for req, or a fresh one. ok is false when the session id
// already belongs to a different booking.
func (o *Orchestrator) load(ctx context.Context, req models.BookingRequest, logger *zap.Logger) (*models.RunRecord, bool) {
	prior, err := o.deps.Journal.Get(ctx, req.SessionID)
	if err == nil {
		return prior, sameBooking(prior, req)
	}
	if !errors.Is(err, ErrRunNotFound) {
		logger.Warn("Run journal unavailable, starting fresh", zap.Error(err))
	}
	// The journal may have expired while the session row remains.
	if s, err := o.deps.Sessions.GetByID(ctx, req.SessionID); err == nil && !sessionMatches(s, req) {
		return nil, false
	}
	return &models.RunRecord{
		SessionID:    req.SessionID,
		UserID:       req.UserID,
		SpecialistID: req.SpecialistID,
		Date:         req.Date,
		Time:         req.Time,
	}, true
}

// heldBy reports whether the slot is taken by req's own session, as after a redelivered run
// whose earlier attempt wrote the session but not the journal.
func (o *Orchestrator) heldBy(ctx context.Context, req models.BookingRequest) bool {
	s, err := o.deps.Sessions.GetByID(ctx, req.SessionID)
	return err == nil && s.Status.Active() && sessionMatches(s, req)
}

func sameBooking(rec *models.RunRecord, req models.BookingRequest) bool {
	return rec.UserID == req.UserID &&
		rec.SpecialistID == req.SpecialistID &&
		rec.Date == req.Date &&
		rec.Time == req.Time
}

func sessionMatches(s *models.Session, req models.BookingRequest) bool {
	return s.UserID == req.UserID &&
		s.SpecialistID == req.SpecialistID &&
		s.Date == req.Date &&
		s.Time == req.Time
}

// transition journals a new state. Journal faults are logged; the run itself goes on.
func (o *Orchestrator) transition(ctx context.Context, run *models.RunRecord, state string, logger *zap.Logger) {
	run.State = state
	run.Steps = append(run.Steps, state)
	run.UpdatedAt = o.now()
	if err := o.deps.Journal.Record(ctx, run); err != nil {
		logger.Warn("Failed to journal booking state", zap.String("state", state), zap.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, run *models.RunRecord, kind Kind, err error, logger *zap.Logger) models.BookingOutcome {
	reason := err.Error()
	run.Error = reason
	run.ErrorKind = string(kind)
	o.transition(ctx, run, StateFailed, logger)

	o.deps.Metrics.BookingOutcome(string(kind))
	if kind == KindBusinessNegative {
		logger.Info("Booking rejected", zap.String("reason", reason))
	} else {
		logger.Error("Booking failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return models.BookingOutcome{SessionID: run.SessionID, Error: reason, ErrorKind: string(kind)}
}
