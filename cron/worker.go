package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aroti/models"
	"aroti/services/booking"
	"aroti/services/notification"
	"aroti/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Handlers are the services the worker delegates to.
type Handlers struct {
	Bookings   *booking.Service
	Deliverer  *notification.Deliverer
	Reconciler *booking.Reconciler
}

// WorkerConfig sizes the worker.
type WorkerConfig struct {
	Concurrency       int
	ReconcileSchedule string
	Location          *time.Location
}

// Worker runs queued tasks and the periodic scheduler in process.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

func NewWorker(redisOpt asynq.RedisClientOpt, cfg WorkerConfig, h Handlers, logger *zap.Logger) (*Worker, error) {
	logger = logger.Named("worker")
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      tasks.Queues(),
		Logger:      logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: cfg.Location,
		Logger:   logger.Sugar(),
	})
	if cfg.ReconcileSchedule != "" {
		if _, err := scheduler.Register(cfg.ReconcileSchedule, tasks.NewReconcileTask(), asynq.Queue(tasks.QueueLow)); err != nil {
			return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
		}
	}

	return &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       NewServeMux(h, logger),
		logger:    logger,
	}, nil
}

// Start returns once the server and scheduler are running.
func (w *Worker) Start() error {
	w.logger.Info("Starting async worker")
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight tasks up to the server's shutdown timeout.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	w.logger.Info("Async worker stopped")
}

// NewServeMux routes every task type to its handler.
func NewServeMux(h Handlers, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingRun, handleBookingRun(h.Bookings, logger))
	mux.HandleFunc(tasks.TypeConfirmationSend, handleConfirmation(h.Deliverer, logger))
	mux.HandleFunc(tasks.TypeReminderSend, handleReminder(h.Deliverer, logger))
	mux.HandleFunc(tasks.TypeReconcileLinks, handleReconcile(h.Reconciler))
	return mux
}

// handleBookingRun drives the run to a terminal state. The outcome lives in the run journal;
// the task fails, and is redelivered, only while that journal lacks a terminal state.
func handleBookingRun(svc *booking.Service, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var req models.BookingRequest
		if err := json.Unmarshal(task.Payload(), &req); err != nil {
			return fmt.Errorf("invalid booking payload: %v: %w", err, asynq.SkipRetry)
		}
		outcome, err := svc.Process(ctx, req)
		if err != nil {
			return err
		}
		logger.Info("Booking run finished",
			zap.String("sessionID", req.SessionID),
			zap.Bool("success", outcome.Success),
			zap.String("kind", outcome.ErrorKind))
		return nil
	}
}

func handleConfirmation(d *notification.Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ConfirmationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid confirmation payload: %v: %w", err, asynq.SkipRetry)
		}
		return undeliverableIsDone(d.DeliverConfirmation(ctx, p), logger, p.UserID)
	}
}

func handleReminder(d *notification.Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		return undeliverableIsDone(d.DeliverReminder(ctx, p), logger, p.UserID)
	}
}

func handleReconcile(r *booking.Reconciler) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		_, err := r.Reconcile(ctx)
		return err
	}
}

func undeliverableIsDone(err error, logger *zap.Logger, userID string) error {
	if errors.Is(err, notification.ErrUndeliverable) {
		logger.Warn("Dropping notification without delivery channel", zap.String("userID", userID))
		return nil
	}
	return err
}
