package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"aroti/models"

	"github.com/hibiken/asynq"
)

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReminderSend, b)
	opts := []asynq.Option{
		asynq.ProcessAt(fireAt),
		asynq.Queue(QueueLow),
		asynq.TaskID(payload.ReminderID),
		asynq.MaxRetry(5),
	}

	return task, opts, nil
}

// ReminderFireAt returns when the reminder for a session starting at date/clock should fire:
// lead before the start, or now when that moment has passed. ok is false once the session
// has started.
func ReminderFireAt(date, clock string, loc *time.Location, lead time.Duration, now time.Time) (fireAt time.Time, ok bool, err error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid session start %s %s: %w", date, clock, err)
	}
	if !now.Before(start) {
		return time.Time{}, false, nil
	}
	fireAt = start.Add(-lead)
	if fireAt.Before(now) {
		fireAt = now
	}
	return fireAt, true, nil
}
