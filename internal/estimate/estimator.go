package estimate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/ledger"
)

// DefaultServiceMinutes is the degraded-mode service time applied when
// the business record cannot be resolved for an existing entry.
const DefaultServiceMinutes = 7

// Estimate is a point-in-time position and wait for one entry.
type Estimate struct {
	Position   int `json:"position"`
	EtaMinutes int `json:"estimated_wait_minutes"`
}

// Estimator is the single source of truth for position and wait math.
// Position is the count of active entries at or before the entry's own
// cursor (so the head of the line is position 1), and the wait is
// (position-1) x the business's average service time, floored at zero.
type Estimator struct {
	ledger     ledger.Ledger
	businesses business.Store
	logger     *zap.Logger
}

func New(l ledger.Ledger, b business.Store, logger *zap.Logger) *Estimator {
	return &Estimator{ledger: l, businesses: b, logger: logger}
}

// ForEntry computes the entry's estimate against a consistent ledger
// snapshot. Terminal entries have nothing left to estimate and yield
// (0, 0).
func (e *Estimator) ForEntry(ctx context.Context, entry *domain.QueueEntry) (Estimate, error) {
	if entry.Status.IsTerminal() {
		return Estimate{}, nil
	}

	cutoff := ledger.Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
	position, err := e.ledger.CountActiveAtOrBefore(ctx, entry.BusinessID, cutoff)
	if err != nil {
		return Estimate{}, fmt.Errorf("count position: %w", err)
	}

	minutes := e.serviceMinutes(ctx, entry.BusinessID)
	eta := (position - 1) * minutes
	if eta < 0 {
		eta = 0
	}

	return Estimate{Position: position, EtaMinutes: eta}, nil
}

// serviceMinutes resolves the business's average service time. A missing
// business record degrades to the default rather than failing the poll;
// the degraded read is logged so it surfaces in operations.
func (e *Estimator) serviceMinutes(ctx context.Context, businessID int64) int {
	b, err := e.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownBusiness) {
			e.logger.Warn("business record missing for estimate, using default service time",
				zap.Int64("business_id", businessID),
				zap.Int("default_minutes", DefaultServiceMinutes),
			)
		} else {
			e.logger.Warn("business lookup failed for estimate, using default service time",
				zap.Int64("business_id", businessID),
				zap.Error(err),
			)
		}
		return DefaultServiceMinutes
	}
	if b.AvgServiceMinutes <= 0 {
		return DefaultServiceMinutes
	}
	return b.AvgServiceMinutes
}
