package notification

import (
	"context"
	"errors"
	"fmt"

	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	userRepo "aroti/database/repository/user"

	"go.uber.org/zap"
)

// ErrUndeliverable means the user has no channel the message could go through. Retrying will not help.
var ErrUndeliverable = errors.New("no delivery channel for user")

// Deliverer sends queued confirmations and reminders. Either channel may be nil.
type Deliverer struct {
	users    userRepo.UserRepository
	sessions sessionRepo.SessionRepository
	mailer   Mailer
	push     PushSender
	logger   *zap.Logger
}

func NewDeliverer(users userRepo.UserRepository, sessions sessionRepo.SessionRepository, mailer Mailer, push PushSender, logger *zap.Logger) *Deliverer {
	return &Deliverer{users: users, sessions: sessions, mailer: mailer, push: push, logger: logger}
}

// DeliverConfirmation prefers e-mail and falls back to push.
func (d *Deliverer) DeliverConfirmation(ctx context.Context, p models.ConfirmationPayload) error {
	user, err := d.contact(ctx, p.UserID)
	if err != nil {
		return err
	}
	subject := "Your session is booked"
	body := fmt.Sprintf("Your session with %s on %s at %s is booked. We'll send the meeting link before it starts.",
		p.Session.SpecialistName, p.Session.Date, p.Session.Time)

	switch {
	case d.mailer != nil && user.Email != "":
		return d.mailer.Send(ctx, user.Email, subject, body)
	case d.push != nil && user.PushToken != "":
		return d.push.Send(ctx, user.PushToken, subject, body, map[string]string{
			"type":      "session_confirmation",
			"sessionId": p.Session.SessionID,
		})
	}
	return fmt.Errorf("%w: %s", ErrUndeliverable, p.UserID)
}

// DeliverReminder prefers push and falls back to e-mail. Reminders for sessions that were
// cancelled or moved since scheduling are dropped.
func (d *Deliverer) DeliverReminder(ctx context.Context, p models.ReminderPayload) error {
	current, err := d.stillScheduled(ctx, p)
	if err != nil {
		return err
	}
	if !current {
		d.logger.Info("Dropping stale reminder", zap.String("reminderID", p.ReminderID), zap.String("sessionID", p.Session.SessionID))
		return nil
	}

	user, err := d.contact(ctx, p.UserID)
	if err != nil {
		return err
	}
	d.logger.Info("Triggering reminder", zap.String("reminderID", p.ReminderID), zap.String("userID", p.UserID))

	switch {
	case d.push != nil && user.PushToken != "":
		return d.push.Send(ctx, user.PushToken, p.Title, p.Body, map[string]string{
			"type":       "session_reminder",
			"reminderId": p.ReminderID,
			"sessionId":  p.Session.SessionID,
			"fireDate":   p.FireDate,
		})
	case d.mailer != nil && user.Email != "":
		return d.mailer.Send(ctx, user.Email, p.Title, p.Body)
	}
	return fmt.Errorf("%w: %s", ErrUndeliverable, p.UserID)
}

// stillScheduled reports whether the reminded session is active at the slot the reminder was built for.
func (d *Deliverer) stillScheduled(ctx context.Context, p models.ReminderPayload) (bool, error) {
	session, err := d.sessions.GetByID(ctx, p.Session.SessionID)
	if errors.Is(err, sessionRepo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load session %s: %w", p.Session.SessionID, err)
	}
	return session.Status.Active() && session.Date == p.Session.Date && session.Time == p.Session.Time, nil
}

func (d *Deliverer) contact(ctx context.Context, userID string) (*models.User, error) {
	user, err := d.users.GetByID(ctx, userID)
	if errors.Is(err, userRepo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUndeliverable, userID)
	}
	return user, err
}
