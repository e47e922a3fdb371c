package booking

import (
	"context"
	"fmt"
	"time"

	"aroti/metrics"
	sessionRepo "aroti/database/repository/session"

	"go.uber.org/zap"
)

const (
	reconcileGrace = 2 * time.Minute
	reconcileBatch = 100
	stepReconcile  = "reconcile_link"
)

// Reconciler attaches meeting links to pending sessions whose run failed after the session was written.
type Reconciler struct {
	sessions    sessionRepo.SessionRepository
	links       LinkProvisioner
	executor    StepExecutor
	policy      RetryPolicy
	invalidator SessionCacheInvalidator
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewReconciler(sessions sessionRepo.SessionRepository, links LinkProvisioner, executor StepExecutor, policy RetryPolicy, invalidator SessionCacheInvalidator, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		sessions:    sessions,
		links:       links,
		executor:    executor,
		policy:      policy,
		invalidator: invalidator,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile processes one batch and returns how many sessions got a link. Sessions younger
// than the grace period may still belong to a run in flight and are left alone.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	pending, err := r.sessions.ListPendingWithoutLink(ctx, r.now().Add(-reconcileGrace), reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions to reconcile: %w", err)
	}

	fixed := 0
	for _, s := range pending {
		id := s.ID
		err := r.executor.Execute(ctx, stepReconcile, r.policy, func(ctx context.Context) error {
			link, err := r.links.Provision(ctx, id)
			if err != nil {
				return err
			}
			return r.sessions.AttachMeetingLink(ctx, id, link)
		})
		if err != nil {
			r.logger.Warn("Failed to reconcile meeting link", zap.String("sessionID", id), zap.Error(err))
			continue
		}
		fixed++
		if r.invalidator != nil {
			r.invalidator.InvalidateUser(ctx, s.UserID)
		}
	}

	r.metrics.LinksReconciled(fixed)
	if len(pending) > 0 {
		r.logger.Info("Reconciled meeting links", zap.Int("candidates", len(pending)), zap.Int("fixed", fixed))
	}
	return fixed, nil
}
