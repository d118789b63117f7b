package proximity

import (
	"sync/atomic"

	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/geo"
)

// Alert is an armed location trigger for one queue entry. The fired flag
// is monotonic: a compare-and-set guards it so concurrent Evaluate calls
// over overlapping alert sets fire each alert at most once per arming.
type Alert struct {
	ID                string
	EntryID           int64
	BusinessID        int64
	Target            geo.Coord
	TriggerDistanceKm float64

	armed atomic.Bool
	fired atomic.Bool
}

// NewAlert validates the target and trigger distance and returns an
// armed, unfired alert.
func NewAlert(id string, entryID, businessID int64, target geo.Coord, triggerKm float64) (*Alert, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if triggerKm <= 0 {
		return nil, domain.ErrInvalidTriggerDistance
	}
	a := &Alert{
		ID:                id,
		EntryID:           entryID,
		BusinessID:        businessID,
		Target:            target,
		TriggerDistanceKm: triggerKm,
	}
	a.armed.Store(true)
	return a, nil
}

func (a *Alert) Armed() bool { return a.armed.Load() }
func (a *Alert) Fired() bool { return a.fired.Load() }

// Disarm makes the alert ineligible to fire. Fired state is not reset.
func (a *Alert) Disarm() { a.armed.Store(false) }

// tryFire flips fired from false to true exactly once.
func (a *Alert) tryFire() bool {
	return a.fired.CompareAndSwap(false, true)
}
