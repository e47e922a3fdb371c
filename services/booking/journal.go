package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"aroti/models"

	"github.com/go-redis/redis/v8"
)

// Run states, in the order a successful run reaches them.
const (
	StateStarted             = "Started"
	StateAvailabilityChecked = "AvailabilityChecked"
	StateSessionCreated      = "SessionCreated"
	StateLinkProvisioned     = "LinkProvisioned"
	StateCompleted           = "Completed"
	StateFailed              = "Failed"
)

// RunTTL is how long a run record outlives its last transition.
const RunTTL = 7 * 24 * time.Hour

// RunJournal keeps the durable progress of booking runs so redelivered runs resume and callers can poll.
type RunJournal interface {
	Record(ctx context.Context, rec *models.RunRecord) error
	// Get returns ErrRunNotFound for unknown or expired runs.
	Get(ctx context.Context, sessionID string) (*models.RunRecord, error)
}

func RunKey(sessionID string) string {
	return "booking:run:" + sessionID
}

// RedisJournal stores each run as a hash.
type RedisJournal struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJournal(client *redis.Client) *RedisJournal {
	return &RedisJournal{client: client, ttl: RunTTL}
}

func (j *RedisJournal) Record(ctx context.Context, rec *models.RunRecord) error {
	key := RunKey(rec.SessionID)
	pipe := j.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"state":         rec.State,
		"steps":         strings.Join(rec.Steps, ","),
		"user_id":       rec.UserID,
		"specialist_id": rec.SpecialistID,
		"date":          rec.Date,
		"time":          rec.Time,
		"meeting_link":  rec.MeetingLink,
		"error":         rec.Error,
		"kind":          rec.ErrorKind,
		"updated_at":    rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, j.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to journal run %s: %w", rec.SessionID, err)
	}
	return nil
}

func (j *RedisJournal) Get(ctx context.Context, sessionID string) (*models.RunRecord, error) {
	vals, err := j.client.HGetAll(ctx, RunKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", sessionID, err)
	}
	if len(vals) == 0 {
		return nil, ErrRunNotFound
	}
	rec := &models.RunRecord{
		SessionID:    sessionID,
		UserID:       vals["user_id"],
		SpecialistID: vals["specialist_id"],
		Date:         vals["date"],
		Time:         vals["time"],
		State:        vals["state"],
		MeetingLink:  vals["meeting_link"],
		Error:        vals["error"],
		ErrorKind:    vals["kind"],
	}
	if steps := vals["steps"]; steps != "" {
		rec.Steps = strings.Split(steps, ",")
	}
	// A missing or malformed timestamp leaves the zero time; the rest of the record still counts.
	if ts, err := time.Parse(time.RFC3339Nano, vals["updated_at"]); err == nil {
		rec.UpdatedAt = ts
	}
	return rec, nil
}

// MemoryJournal is an in-process RunJournal.
type MemoryJournal struct {
	mu   sync.Mutex
	runs map[string]models.RunRecord
	Err  error // returned by Record when set
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{runs: make(map[string]models.RunRecord)}
}

func (j *MemoryJournal) Record(ctx context.Context, rec *models.RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Err != nil {
		return j.Err
	}
	cp := *rec
	cp.Steps = append([]string(nil), rec.Steps...)
	j.runs[rec.SessionID] = cp
	return nil
}

func (j *MemoryJournal) Get(ctx context.Context, sessionID string) (*models.RunRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.runs[sessionID]
	if !ok {
		return nil, ErrRunNotFound
	}
	rec.Steps = append([]string(nil), rec.Steps...)
	return &rec, nil
}

func reached(rec *models.RunRecord, state string) bool {
	for _, s := range rec.Steps {
		if s == state {
			return true
		}
	}
	return false
}

func terminal(rec *models.RunRecord) bool {
	return rec.State == StateCompleted || rec.State == StateFailed
}

// OutcomeOf renders a terminal run record as the outcome the run returned.
func OutcomeOf(rec *models.RunRecord) models.BookingOutcome {
	if rec.State == StateCompleted {
		return models.BookingOutcome{Success: true, SessionID: rec.SessionID, MeetingLink: rec.MeetingLink}
	}
	return models.BookingOutcome{SessionID: rec.SessionID, Error: rec.Error, ErrorKind: rec.ErrorKind}
}

