package booking

import (
	"time"

	"aroti/config"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds how one step is attempted.
type RetryPolicy struct {
	InitialInterval    time.Duration
	BackoffCoefficient float64
	MaximumInterval    time.Duration
	MaximumAttempts    int
	// StartToCloseTimeout bounds a single attempt; zero means unbounded.
	StartToCloseTimeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialInterval:     time.Second,
		BackoffCoefficient:  2,
		MaximumInterval:     time.Minute,
		MaximumAttempts:     3,
		StartToCloseTimeout: 30 * time.Second,
	}
}

// PoliciesFromConfig returns the policy for the critical steps and the one for notification side effects.
func PoliciesFromConfig(cfg *config.Config) (steps, notify RetryPolicy) {
	steps = RetryPolicy{
		InitialInterval:     cfg.BookingRetryInitial,
		BackoffCoefficient:  2,
		MaximumInterval:     cfg.BookingRetryMaxInterval,
		MaximumAttempts:     cfg.BookingRetryMaxAttempts,
		StartToCloseTimeout: cfg.BookingStepTimeout,
	}
	notify = steps
	notify.StartToCloseTimeout = cfg.NotificationStepTimeout
	return steps, notify
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0.1,
		Multiplier:          p.BackoffCoefficient,
		MaxInterval:         p.MaximumInterval,
	}
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	b.Reset()
	return b
}

func (p RetryPolicy) maxAttempts() uint {
	if p.MaximumAttempts < 1 {
		return 1
	}
	return uint(p.MaximumAttempts)
}
