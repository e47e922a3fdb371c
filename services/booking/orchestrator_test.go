package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aroti/models"
	sessionRepo "aroti/database/repository/session"
	specialistRepo "aroti/database/repository/specialist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testMeetingBase = "https://meet.aroti.test"

type fakeNotifier struct {
	mu            sync.Mutex
	confirmations []string
	reminders     []string
	fail          bool
}

func (n *fakeNotifier) SendConfirmation(ctx context.Context, userID string, s models.SessionSnapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notification service down")
	}
	n.confirmations = append(n.confirmations, s.SessionID)
	return nil
}

func (n *fakeNotifier) ScheduleReminder(ctx context.Context, userID string, s models.SessionSnapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("notification service down")
	}
	n.reminders = append(n.reminders, s.SessionID)
	return nil
}

type failingLinks struct{ calls int32 }

func (f *failingLinks) Provision(ctx context.Context, sessionID string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return "", errors.New("meeting provider unreachable")
}

type countingCreator struct {
	next  sessionCreator
	err   error
	calls int32
}

func (c *countingCreator) Create(ctx context.Context, req models.BookingRequest) (*models.SessionSnapshot, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	return c.next.Create(ctx, req)
}

type alwaysAvailable struct{}

func (alwaysAvailable) Check(ctx context.Context, specialistID, date, clock string) (bool, error) {
	return true, nil
}

type fixture struct {
	specialists *specialistRepo.MemorySpecialistRepo
	sessions    *sessionRepo.MemorySessionRepo
	notifier    *fakeNotifier
	executor    *LocalExecutor
	journal     *MemoryJournal
	deps        OrchestratorDeps
	logs        *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	specialists := specialistRepo.NewMemorySpecialistRepo([]models.Specialist{
		{ID: "S1", Name: "Raluca", Specialty: "Astrologer", Photo: "specialist-1", Price: 40, Available: true},
		{ID: "S2", Name: "Marcus", Specialty: "Holistic Therapist", Photo: "specialist-2", Price: 55, Available: false},
	}, nil)
	sessions := sessionRepo.NewMemorySessionRepo()
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	f := &fixture{
		specialists: specialists,
		sessions:    sessions,
		notifier:    &fakeNotifier{},
		executor:    NewLocalExecutor(logger, nil),
		journal:     NewMemoryJournal(),
		logs:        logs,
	}
	f.deps = OrchestratorDeps{
		Availability: NewAvailabilityChecker(specialists, sessions),
		Writer:       NewSessionWriter(specialists, sessions),
		Sessions:     sessions,
		Links:        NewRoomLinkProvisioner(testMeetingBase),
		Notifier:     f.notifier,
		Executor:     f.executor,
		Journal:      f.journal,
		StepPolicy:   testPolicy(),
		NotifyPolicy: testPolicy(),
		Logger:       logger,
	}
	return f
}

func (f *fixture) orchestrator() *Orchestrator {
	return NewOrchestrator(f.deps)
}

func request(sessionID, specialistID string) models.BookingRequest {
	return models.BookingRequest{
		SessionID:    sessionID,
		SpecialistID: specialistID,
		UserID:       "user-1",
		Date:         "2025-09-15",
		Time:         "14:00",
	}
}

func TestRun_BooksFreeSlot(t *testing.T) {
	f := newFixture(t)

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))
	f.executor.Wait()

	assert.Equal(t, models.BookingOutcome{Success: true, SessionID: "X", MeetingLink: testMeetingBase + "/session-X"}, outcome)

	stored, err := f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, stored.Status)
	assert.Equal(t, 40, stored.Price)
	assert.Equal(t, "2025-09-15", stored.Date)
	assert.Equal(t, "14:00", stored.Time)
	assert.Equal(t, models.DefaultSessionDuration, stored.Duration)
	assert.Equal(t, "Raluca", stored.SpecialistName)
	assert.Equal(t, outcome.MeetingLink, stored.MeetingLink)

	assert.Equal(t, []string{"X"}, f.notifier.confirmations)
	assert.Equal(t, []string{"X"}, f.notifier.reminders)

	run, err := f.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, []string{StateStarted, StateAvailabilityChecked, StateSessionCreated, StateLinkProvisioned, StateCompleted}, run.Steps)
}

func TestRun_SameSlotTwiceIsNotAvailable(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()

	require.True(t, o.Run(context.Background(), request("X", "S1")).Success)
	second := o.Run(context.Background(), request("Y", "S1"))
	f.executor.Wait()

	assert.False(t, second.Success)
	assert.Equal(t, "not available", second.Error)
	assert.Equal(t, string(KindBusinessNegative), second.ErrorKind)
	assert.Empty(t, second.MeetingLink)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestRun_InactiveSpecialistIsNotAvailable(t *testing.T) {
	f := newFixture(t)

	outcome := f.orchestrator().Run(context.Background(), request("X", "S2"))

	assert.False(t, outcome.Success)
	assert.Equal(t, "not available", outcome.Error)
	assert.Equal(t, 0, f.sessions.Count())
	assert.Empty(t, f.notifier.confirmations)
}

func TestRun_ConcurrentBookingsOfOneSlot(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		o := f.orchestrator()

		var wg sync.WaitGroup
		start := make(chan struct{})
		outcomes := make([]models.BookingOutcome, 2)
		for i, id := range []string{"A", "B"} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				<-start
				outcomes[i] = o.Run(context.Background(), request(id, "S1"))
			}(i, id)
		}
		close(start)
		wg.Wait()
		f.executor.Wait()

		completed, rejected := 0, 0
		for _, out := range outcomes {
			if out.Success {
				completed++
			} else if out.Error == "not available" {
				rejected++
			}
		}
		require.Equal(t, 1, completed, "round %d: %+v", round, outcomes)
		require.Equal(t, 1, rejected, "round %d: %+v", round, outcomes)
		require.Equal(t, 1, f.sessions.Count())
	}
}

func TestSessionWriter_CreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	w := NewSessionWriter(f.specialists, f.sessions)

	first, err := w.Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)
	second, err := w.Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestRun_PriceIsCapturedAtBookingTime(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.orchestrator().Run(context.Background(), request("X", "S1")).Success)
	require.NoError(t, f.specialists.UpdatePrice("S1", 90))

	stored, err := f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Price)

	// A retried write of the same session keeps the original price too.
	_, err = NewSessionWriter(f.specialists, f.sessions).Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)
	stored, err = f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Price)
}

func TestRun_NotificationFailureDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = true

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))
	f.executor.Wait()

	assert.True(t, outcome.Success)
	run, err := f.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, run.State)
	assert.Equal(t, 2, f.logs.FilterMessage("Detached step failed").Len())
}

func TestRun_TransientFailureExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	creator := &countingCreator{err: errors.New("storage timeout")}
	f.deps.Writer = creator

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))

	assert.False(t, outcome.Success)
	assert.Equal(t, string(KindTransient), outcome.ErrorKind)
	assert.Contains(t, outcome.Error, "storage timeout")
	assert.EqualValues(t, testPolicy().MaximumAttempts, atomic.LoadInt32(&creator.calls))

	run, err := f.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, run.State)
	assert.NotContains(t, run.Steps, StateSessionCreated)
}

func TestRun_MissingSpecialistIsNotRetried(t *testing.T) {
	f := newFixture(t)
	creator := &countingCreator{next: NewSessionWriter(f.specialists, f.sessions)}
	f.deps.Availability = alwaysAvailable{}
	f.deps.Writer = creator

	outcome := f.orchestrator().Run(context.Background(), request("X", "S9"))

	assert.False(t, outcome.Success)
	assert.Equal(t, string(KindNotFound), outcome.ErrorKind)
	assert.Equal(t, "specialist not found: S9", outcome.Error)
	assert.EqualValues(t, 1, atomic.LoadInt32(&creator.calls))
	assert.Equal(t, 0, f.sessions.Count())
}

func TestRun_LinkFailureIsPartialSuccess(t *testing.T) {
	f := newFixture(t)
	links := &failingLinks{}
	f.deps.Links = links

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))
	f.executor.Wait()

	assert.False(t, outcome.Success)
	assert.Equal(t, string(KindPartialSuccess), outcome.ErrorKind)
	assert.True(t, strings.HasPrefix(outcome.Error, "link provisioning failed"), outcome.Error)
	assert.Empty(t, outcome.MeetingLink)
	assert.EqualValues(t, testPolicy().MaximumAttempts, atomic.LoadInt32(&links.calls))

	// The session and its confirmation stay committed.
	stored, err := f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, models.SessionPending, stored.Status)
	assert.Empty(t, stored.MeetingLink)
	assert.Equal(t, []string{"X"}, f.notifier.confirmations)

	// Reconciliation later attaches the link.
	r := NewReconciler(f.sessions, NewRoomLinkProvisioner(testMeetingBase), f.executor, testPolicy(), nil, nil, zap.NewNop())
	r.now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	fixed, err := r.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	stored, err = f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, testMeetingBase+"/session-X", stored.MeetingLink)
}

func TestRun_TerminalRunReturnsRecordedOutcome(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()

	first := o.Run(context.Background(), request("X", "S1"))
	require.True(t, first.Success)

	// The slot is now held by X itself; replaying X must not turn into "not available".
	replay := o.Run(context.Background(), request("X", "S1"))
	assert.Equal(t, first, replay)
	assert.Equal(t, 1, f.sessions.Count())
}

func TestRun_ReusedSessionIDIsConflict(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator()
	require.True(t, o.Run(context.Background(), request("X", "S1")).Success)
	f.executor.Wait()

	intruder := request("X", "S1")
	intruder.UserID = "user-2"
	intruder.Time = "16:00"
	outcome := o.Run(context.Background(), intruder)
	f.executor.Wait()

	assert.False(t, outcome.Success)
	assert.Equal(t, string(KindConflict), outcome.ErrorKind)
	assert.Empty(t, outcome.MeetingLink)
	assert.Equal(t, []string{"X"}, f.notifier.confirmations)

	// The owner's run is untouched.
	run, err := f.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, run.State)
	assert.Equal(t, "user-1", run.UserID)
}

func TestRun_ReusedSessionIDWithoutJournalIsConflict(t *testing.T) {
	f := newFixture(t)
	_, err := NewSessionWriter(f.specialists, f.sessions).Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)

	intruder := request("X", "S1")
	intruder.UserID = "user-2"
	intruder.Time = "16:00"
	outcome := f.orchestrator().Run(context.Background(), intruder)
	f.executor.Wait()

	assert.False(t, outcome.Success)
	assert.Equal(t, string(KindConflict), outcome.ErrorKind)
	assert.Empty(t, outcome.MeetingLink)
	assert.Empty(t, f.notifier.confirmations)
	_, err = f.journal.Get(context.Background(), "X")
	assert.ErrorIs(t, err, ErrRunNotFound)

	stored, err := f.sessions.GetByID(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	assert.Empty(t, stored.MeetingLink)
}

func TestSessionWriter_CreateRejectsDifferentBooking(t *testing.T) {
	f := newFixture(t)
	w := NewSessionWriter(f.specialists, f.sessions)

	_, err := w.Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)

	other := request("X", "S1")
	other.Date = "2025-09-16"
	_, err = w.Create(context.Background(), other)
	assert.ErrorIs(t, err, ErrSessionConflict)
	assert.True(t, IsPermanent(err))
}

func TestRun_ResumesAfterCommittedWrite(t *testing.T) {
	f := newFixture(t)

	// A worker died after writing the session but before journaling SessionCreated.
	_, err := NewSessionWriter(f.specialists, f.sessions).Create(context.Background(), request("X", "S1"))
	require.NoError(t, err)
	require.NoError(t, f.journal.Record(context.Background(), &models.RunRecord{
		SessionID: "X", UserID: "user-1", SpecialistID: "S1", Date: "2025-09-15", Time: "14:00",
		State: StateAvailabilityChecked, Steps: []string{StateStarted, StateAvailabilityChecked},
	}))

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))
	f.executor.Wait()

	assert.True(t, outcome.Success)
	assert.Equal(t, 1, f.sessions.Count())
	run, err := f.journal.Get(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, []string{StateStarted, StateAvailabilityChecked, StateSessionCreated, StateLinkProvisioned, StateCompleted}, run.Steps)
}

func TestRun_JournalOutageDoesNotFailBooking(t *testing.T) {
	f := newFixture(t)
	f.journal.Err = errors.New("redis: connection refused")

	outcome := f.orchestrator().Run(context.Background(), request("X", "S1"))
	f.executor.Wait()

	assert.True(t, outcome.Success)
	assert.Positive(t, f.logs.FilterMessage("Failed to journal booking state").Len())
}

func TestRun_IgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := f.orchestrator().Run(ctx, request("X", "S1"))
	f.executor.Wait()

	assert.True(t, outcome.Success)
}
