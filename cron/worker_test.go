package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	specialistRepo "aroti/database/repository/specialist"
	userRepo "aroti/database/repository/user"
	"aroti/services/booking"
	"aroti/services/notification"
	"aroti/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	to []string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.to = append(m.to, to)
	return nil
}

type env struct {
	mux      *asynq.ServeMux
	sessions *sessionRepo.MemorySessionRepo
	journal  *booking.MemoryJournal
	executor *booking.LocalExecutor
	mailer   *fakeMailer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()
	specialists := specialistRepo.NewMemorySpecialistRepo([]models.Specialist{
		{ID: "1", Name: "Raluca", Price: 40, Available: true},
	}, nil)
	sessions := sessionRepo.NewMemorySessionRepo()
	users := userRepo.NewMemoryUserRepo(models.User{ID: "user-1", Email: "emma@example.com"})
	journal := booking.NewMemoryJournal()
	executor := booking.NewLocalExecutor(logger, nil)
	links := booking.NewRoomLinkProvisioner("https://meet.aroti.test")
	enq := tasks.NewMemoryEnqueuer()
	policy := booking.RetryPolicy{InitialInterval: time.Millisecond, BackoffCoefficient: 2, MaximumInterval: time.Millisecond, MaximumAttempts: 2}

	orch := booking.NewOrchestrator(booking.OrchestratorDeps{
		Availability: booking.NewAvailabilityChecker(specialists, sessions),
		Writer:       booking.NewSessionWriter(specialists, sessions),
		Sessions:     sessions,
		Links:        links,
		Notifier:     notification.NewDispatcher(enq, time.UTC, 24*time.Hour, logger),
		Executor:     executor,
		Journal:      journal,
		StepPolicy:   policy,
		NotifyPolicy: policy,
		Logger:       logger,
	})
	mailer := &fakeMailer{}
	mux := NewServeMux(Handlers{
		Bookings:   booking.NewService(orch, journal, enq, nil, logger),
		Deliverer:  notification.NewDeliverer(users, sessions, mailer, nil, logger),
		Reconciler: booking.NewReconciler(sessions, links, executor, policy, nil, nil, logger),
	}, logger)
	return &env{mux: mux, sessions: sessions, journal: journal, executor: executor, mailer: mailer}
}

func payload(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestBookingRunTaskCompletesRun(t *testing.T) {
	e := newEnv(t)
	req := models.BookingRequest{SessionID: "X", SpecialistID: "1", UserID: "user-1", Date: "2030-01-10", Time: "09:00"}

	err := e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeBookingRun, payload(t, req)))
	e.executor.Wait()
	require.NoError(t, err)

	run, err := e.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, booking.StateCompleted, run.State)
	assert.Equal(t, "https://meet.aroti.test/session-X", run.MeetingLink)
}

func TestBookingRunTaskFailsWhileJournalLacksOutcome(t *testing.T) {
	e := newEnv(t)
	req := models.BookingRequest{SessionID: "X", SpecialistID: "1", UserID: "user-1", Date: "2030-01-10", Time: "09:00"}
	task := asynq.NewTask(tasks.TypeBookingRun, payload(t, req))

	e.journal.Err = errors.New("redis: connection refused")
	err := e.mux.ProcessTask(context.Background(), task)
	e.executor.Wait()
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	// Redelivery finds the slot held by its own session and completes.
	e.journal.Err = nil
	require.NoError(t, e.mux.ProcessTask(context.Background(), task))
	e.executor.Wait()

	run, err := e.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, booking.StateCompleted, run.State)
	assert.Equal(t, 1, e.sessions.Count())
}

func TestBookingRunTaskRejectsBadPayload(t *testing.T) {
	e := newEnv(t)
	err := e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeBookingRun, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestConfirmationTaskDelivers(t *testing.T) {
	e := newEnv(t)
	p := models.ConfirmationPayload{UserID: "user-1", Session: models.SessionSnapshot{SessionID: "X", SpecialistName: "Raluca"}}

	require.NoError(t, e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeConfirmationSend, payload(t, p))))
	assert.Equal(t, []string{"emma@example.com"}, e.mailer.to)

	// Users without contact details are dropped rather than retried.
	p.UserID = "ghost"
	assert.NoError(t, e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeConfirmationSend, payload(t, p))))
}

func TestReminderTaskDelivers(t *testing.T) {
	e := newEnv(t)
	_, err := e.sessions.Upsert(context.Background(), &models.Session{
		ID: "X", SpecialistID: "1", UserID: "user-1", Date: "2030-01-10", Time: "09:00", Status: models.SessionPending,
	})
	require.NoError(t, err)
	snap := models.SessionSnapshot{SessionID: "X", SpecialistName: "Raluca", Date: "2030-01-10", Time: "09:00"}
	p := models.ReminderPayload{ReminderID: notification.ReminderID(snap), UserID: "user-1", Session: snap, Title: "Upcoming session", Body: "soon"}

	require.NoError(t, e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeReminderSend, payload(t, p))))
	assert.Equal(t, []string{"emma@example.com"}, e.mailer.to)
}

func TestReminderTaskSkipsCancelledSession(t *testing.T) {
	e := newEnv(t)
	_, err := e.sessions.Upsert(context.Background(), &models.Session{
		ID: "X", SpecialistID: "1", UserID: "user-1", Date: "2030-01-10", Time: "09:00", Status: models.SessionPending,
	})
	require.NoError(t, err)
	_, err = e.sessions.UpdateStatus(context.Background(), "X", models.SessionCancelled)
	require.NoError(t, err)

	snap := models.SessionSnapshot{SessionID: "X", SpecialistName: "Raluca", Date: "2030-01-10", Time: "09:00"}
	p := models.ReminderPayload{ReminderID: notification.ReminderID(snap), UserID: "user-1", Session: snap, Title: "Upcoming session", Body: "soon"}

	require.NoError(t, e.mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeReminderSend, payload(t, p))))
	assert.Empty(t, e.mailer.to)
}

func TestReconcileTaskAttachesLinks(t *testing.T) {
	e := newEnv(t)
	_, err := e.sessions.Upsert(context.Background(), &models.Session{
		ID: "P", SpecialistID: "1", UserID: "user-1", Date: "2030-01-10", Time: "09:00",
		Status: models.SessionPending, CreatedAt: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, e.mux.ProcessTask(context.Background(), tasks.NewReconcileTask()))

	s, err := e.sessions.GetByID(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, "https://meet.aroti.test/session-P", s.MeetingLink)
}
