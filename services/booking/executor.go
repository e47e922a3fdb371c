package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aroti/metrics"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Step is one remote effect of a booking run.
type Step func(ctx context.Context) error

// StepExecutor runs steps under a retry policy. The orchestrator only depends on this
// capability, so it can be backed by an in-process executor or a durable engine.
type StepExecutor interface {
	// Execute blocks until step succeeds, returns a permanent error, or runs out of attempts.
	Execute(ctx context.Context, name string, policy RetryPolicy, step Step) error
	// Detach starts step in the background. Its failure never reaches the caller.
	Detach(ctx context.Context, name string, policy RetryPolicy, step Step)
}

// LocalExecutor runs steps in process with exponential backoff between attempts.
type LocalExecutor struct {
	logger   *zap.Logger
	detached *zap.Logger
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
}

func NewLocalExecutor(logger *zap.Logger, m *metrics.Metrics) *LocalExecutor {
	return &LocalExecutor{
		logger:   logger,
		detached: logger.Named("detached"),
		metrics:  m,
	}
}

func (e *LocalExecutor) Execute(ctx context.Context, name string, policy RetryPolicy, step Step) error {
	attempts := 0
	var last error

	operation := func() (struct{}, error) {
		attempts++
		e.metrics.StepAttempt(name)
		err := e.attempt(ctx, policy.StartToCloseTimeout, step)
		if err == nil {
			return struct{}{}, nil
		}
		last = err
		if IsPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy.backOff()),
		backoff.WithMaxTries(policy.maxAttempts()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			e.logger.Warn("Step attempt failed, retrying",
				zap.String("step", name),
				zap.Int("attempt", attempts),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err == nil {
		return nil
	}
	if last == nil {
		last = err
	}
	if IsPermanent(last) {
		return last
	}
	return &StepError{Step: name, Attempts: attempts, Err: last}
}

func (e *LocalExecutor) Detach(ctx context.Context, name string, policy RetryPolicy, step Step) {
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.Execute(ctx, name, policy, step); err != nil {
			e.metrics.DetachedFailure(name)
			e.detached.Error("Detached step failed", zap.String("step", name), zap.Error(err))
		}
	}()
}

// Wait blocks until every detached step has finished.
func (e *LocalExecutor) Wait() {
	e.wg.Wait()
}

// attempt runs step once, bounded by timeout. A step that outlives its timeout keeps running
// in its goroutine but its result is discarded.
func (e *LocalExecutor) attempt(ctx context.Context, timeout time.Duration, step Step) error {
	if timeout <= 0 {
		return runRecovered(ctx, step)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runRecovered(attemptCtx, step) }()

	select {
	case err := <-done:
		return err
	case <-attemptCtx.Done():
		return fmt.Errorf("attempt timed out after %s: %w", timeout, attemptCtx.Err())
	}
}

func runRecovered(ctx context.Context, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step panicked: %v", r)
		}
	}()
	return step(ctx)
}
