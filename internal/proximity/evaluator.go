package proximity

import (
	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/geo"
)

// FiredAlert reports one alert that fired during an Evaluate pass.
type FiredAlert struct {
	AlertID    string  `json:"alert_id"`
	EntryID    int64   `json:"entry_id,omitempty"`
	BusinessID int64   `json:"business_id"`
	DistanceKm float64 `json:"distance_km"`
}

// Evaluator decides which armed alerts fire for an observer position.
// It owns no goroutines; callers drive it at their own location-sample
// cadence and may invoke it concurrently for overlapping alert sets.
type Evaluator struct {
	logger *zap.Logger
}

func NewEvaluator(logger *zap.Logger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate checks every armed, unfired alert against the observer
// position. The trigger boundary is inclusive: distance == trigger
// fires. Alerts are independent; iteration order never changes the
// outcome. The per-alert CAS makes a repeat call on an already-fired
// alert a no-op.
func (ev *Evaluator) Evaluate(observer geo.Coord, alerts []*Alert) ([]FiredAlert, error) {
	if err := observer.Validate(); err != nil {
		return nil, err
	}

	var fired []FiredAlert
	for _, a := range alerts {
		if !a.Armed() || a.Fired() {
			continue
		}

		d, err := geo.Distance(observer, a.Target)
		if err != nil {
			// Target was validated at arm time; a failure here means the
			// alert is corrupt. Skip it, do not poison the whole pass.
			ev.logger.Warn("skipping alert with invalid target",
				zap.String("alert_id", a.ID), zap.Error(err))
			continue
		}
		if d > a.TriggerDistanceKm {
			continue
		}

		if a.tryFire() {
			fired = append(fired, FiredAlert{
				AlertID:    a.ID,
				EntryID:    a.EntryID,
				BusinessID: a.BusinessID,
				DistanceKm: d,
			})
		}
	}
	return fired, nil
}
