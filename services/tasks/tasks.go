// Package tasks defines the durable task types run by the asynq worker.
package tasks

import (
	"context"
	"encoding/json"
	"errors"

	"aroti/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingRun       = "booking:run"
	TypeConfirmationSend = "confirmation:send"
	TypeReminderSend     = "reminder:send"
	TypeReconcileLinks   = "session:reconcile-links"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues returns the worker's queue priorities.
func Queues() map[string]int {
	return map[string]int{
		QueueCritical: 6,
		QueueDefault:  3,
		QueueLow:      1,
	}
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// IsDuplicate reports whether an enqueue was rejected because the task id is already queued.
func IsDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}

// NewBookingRunTask wraps a booking request. The session id doubles as the task id so a
// request is queued at most once.
func NewBookingRunTask(req models.BookingRequest) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingRun, b)
	opts := []asynq.Option{
		asynq.Queue(QueueCritical),
		asynq.TaskID(req.SessionID),
		asynq.MaxRetry(5),
	}
	return task, opts, nil
}

func NewConfirmationTask(payload models.ConfirmationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeConfirmationSend, b)
	opts := []asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.TaskID("confirmation:" + payload.Session.SessionID),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}

// NewReconcileTask is the periodic link reconciliation tick.
func NewReconcileTask() *asynq.Task {
	return asynq.NewTask(TypeReconcileLinks, nil)
}
