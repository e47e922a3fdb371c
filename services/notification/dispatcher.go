package notification

import (
	"context"
	"fmt"
	"time"

	"aroti/models"
	"aroti/services/tasks"

	"go.uber.org/zap"
)

// Dispatcher turns booking side effects into durable tasks. Delivery happens in the worker,
// so a successful call only means the task is queued.
type Dispatcher struct {
	enqueuer tasks.Enqueuer
	location *time.Location
	lead     time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewDispatcher(enqueuer tasks.Enqueuer, location *time.Location, lead time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		enqueuer: enqueuer,
		location: location,
		lead:     lead,
		now:      time.Now,
		logger:   logger,
	}
}

func (d *Dispatcher) SendConfirmation(ctx context.Context, userID string, session models.SessionSnapshot) error {
	task, opts, err := tasks.NewConfirmationTask(models.ConfirmationPayload{UserID: userID, Session: session})
	if err != nil {
		return err
	}
	if _, err := d.enqueuer.EnqueueContext(ctx, task, opts...); err != nil && !tasks.IsDuplicate(err) {
		return fmt.Errorf("failed to enqueue confirmation for %s: %w", session.SessionID, err)
	}
	return nil
}

// ScheduleReminder queues a push for lead before the session starts. The reminder id carries
// the slot, so a rescheduled session gets a fresh reminder.
func (d *Dispatcher) ScheduleReminder(ctx context.Context, userID string, session models.SessionSnapshot) error {
	fireAt, ok, err := tasks.ReminderFireAt(session.Date, session.Time, d.location, d.lead, d.now())
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Info("Session already started, skipping reminder", zap.String("sessionID", session.SessionID))
		return nil
	}

	payload := models.ReminderPayload{
		ReminderID: ReminderID(session),
		UserID:     userID,
		Session:    session,
		FireDate:   fireAt.UTC().Format(time.RFC3339),
		Title:      "Upcoming session",
		Body:       fmt.Sprintf("Your session with %s starts on %s at %s.", session.SpecialistName, session.Date, session.Time),
	}
	task, opts, err := tasks.NewReminderTask(payload, fireAt)
	if err != nil {
		return err
	}
	if _, err := d.enqueuer.EnqueueContext(ctx, task, opts...); err != nil && !tasks.IsDuplicate(err) {
		return fmt.Errorf("failed to schedule reminder for %s: %w", session.SessionID, err)
	}
	return nil
}

func ReminderID(session models.SessionSnapshot) string {
	return "reminder:" + session.SessionID + ":" + session.Date + "T" + session.Time
}
