package utils

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Checks    map[string]bool `json:"checks"`
	Ready     bool            `json:"ready"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// HealthMonitor runs named dependency checks on demand and keeps the latest snapshot.
type HealthMonitor struct {
	checks map[string]HealthCheck
	logger *zap.Logger

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(logger *zap.Logger, checks map[string]HealthCheck) *HealthMonitor {
	return &HealthMonitor{checks: checks, logger: logger}
}

// Check runs every health check with a short timeout and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := HealthStatus{Checks: make(map[string]bool, len(m.checks)), Ready: true, CheckedAt: time.Now()}
	for name, check := range m.checks {
		err := check(ctx)
		status.Checks[name] = err == nil
		if err != nil {
			status.Ready = false
			m.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
		}
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Latest returns the most recent snapshot without probing.
func (m *HealthMonitor) Latest() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
