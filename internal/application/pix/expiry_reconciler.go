package pix

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pix/backend/internal/domain/pix"
	"github.com/pix/backend/internal/domain/shared"
)

const defaultSweepBatchSize = 100

// SweepSummary reports the outcome of one expiry sweep for operator
// visibility
type SweepSummary struct {
	Scanned  int `json:"scanned"`
	Resolved int `json:"resolved"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// ExpiryReconciler sweeps non-terminal claims past their deadline and forces
// the deterministic default outcome per claim type.
//
// The sweep is stateless over "now" and safe under at-least-once scheduling:
// forced transitions run through the same monotonic reconciliation path as
// Directory notifications, so a concurrent or repeated sweep is absorbed as
// a no-op. Individual claim failures are logged and counted, never abort the
// sweep.
type ExpiryReconciler struct {
	claims    *ClaimService
	claimRepo pix.ClaimRepository
	batchSize int
	logger    *zap.Logger
}

// NewExpiryReconciler creates a new ExpiryReconciler
func NewExpiryReconciler(claims *ClaimService, claimRepo pix.ClaimRepository, logger *zap.Logger) *ExpiryReconciler {
	return &ExpiryReconciler{
		claims:    claims,
		claimRepo: claimRepo,
		batchSize: defaultSweepBatchSize,
		logger:    logger,
	}
}

// SetBatchSize overrides the per-sweep claim limit
func (r *ExpiryReconciler) SetBatchSize(size int) {
	if size > 0 {
		r.batchSize = size
	}
}

// Sweep resolves every overdue claim found at the given instant
func (r *ExpiryReconciler) Sweep(ctx context.Context, now time.Time) (SweepSummary, error) {
	summary := SweepSummary{}

	expired, err := r.claimRepo.FindExpired(ctx, now, r.batchSize)
	if err != nil {
		return summary, err
	}
	summary.Scanned = len(expired)

	for _, claim := range expired {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		resolved, err := r.claims.ResolveExpired(ctx, claim.ID, now)
		switch {
		case err == nil && resolved:
			summary.Resolved++
			r.logger.Info("Expired claim resolved",
				zap.String("claim_id", claim.ID.String()),
				zap.String("claim_type", claim.Type.String()))
		case err == nil:
			// Another actor resolved it between the query and the reload
			summary.Skipped++
		case shared.IsRetryable(err):
			// A competing transition won; the next sweep re-evaluates
			summary.Skipped++
			r.logger.Debug("Expired claim contended, skipping",
				zap.String("claim_id", claim.ID.String()),
				zap.Error(err))
		case errors.Is(err, shared.ErrStaleNotification):
			summary.Skipped++
		default:
			summary.Failed++
			r.logger.Error("Failed to resolve expired claim",
				zap.String("claim_id", claim.ID.String()),
				zap.Error(err))
		}
	}

	if summary.Scanned > 0 {
		r.logger.Info("Expiry sweep finished",
			zap.Int("scanned", summary.Scanned),
			zap.Int("resolved", summary.Resolved),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed))
	}
	return summary, nil
}
