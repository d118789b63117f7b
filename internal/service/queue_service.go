package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/estimate"
	"github.com/waitline/waitline/internal/geo"
	"github.com/waitline/waitline/internal/ledger"
	"github.com/waitline/waitline/internal/proximity"
)

// Hooks carries the metric callbacks injected by main. All are optional.
type Hooks struct {
	OnJoin       func(etaMinutes int)
	OnLeave      func()
	OnAlertFired func()
}

// QueueService coordinates the ledger, estimator, proximity registry and
// the dispatch queue. All queue business rules (join validation, leave
// idempotency, dashboard transitions, alert relevance) live here. HTTP
// handlers and workers depend on this service, not on each other.
type QueueService struct {
	ledger     ledger.Ledger
	businesses business.Store
	estimator  *estimate.Estimator
	alerts     *proximity.Registry
	evaluator  *proximity.Evaluator
	q          *dispatch.Queue
	logger     *zap.Logger
	hooks      Hooks
	now        func() time.Time
}

func NewQueueService(
	l ledger.Ledger,
	b business.Store,
	est *estimate.Estimator,
	alerts *proximity.Registry,
	evaluator *proximity.Evaluator,
	q *dispatch.Queue,
	logger *zap.Logger,
	hooks Hooks,
) *QueueService {
	if hooks.OnJoin == nil {
		hooks.OnJoin = func(int) {}
	}
	if hooks.OnLeave == nil {
		hooks.OnLeave = func() {}
	}
	if hooks.OnAlertFired == nil {
		hooks.OnAlertFired = func() {}
	}
	return &QueueService{
		ledger:     l,
		businesses: b,
		estimator:  est,
		alerts:     alerts,
		evaluator:  evaluator,
		q:          q,
		logger:     logger,
		hooks:      hooks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Join validates the business, appends the entry and returns its
// position and wait. An unknown business is a validation failure and
// creates no entry. An arm request additionally registers a proximity
// alert targeting the business's location.
func (s *QueueService) Join(ctx context.Context, req domain.JoinRequest) (*domain.JoinResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	biz, err := s.businesses.GetByID(ctx, req.BusinessID)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = "Guest"
	}
	var phone *string
	if req.Phone != "" {
		phone = &req.Phone
	}

	entry, err := s.ledger.Append(ctx, ledger.AppendInput{
		BusinessID:   req.BusinessID,
		CustomerName: name,
		Phone:        phone,
	})
	if err != nil {
		return nil, fmt.Errorf("append entry: %w", err)
	}

	est, err := s.estimator.ForEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("estimate after join: %w", err)
	}

	if req.ArmProximityAlert {
		trigger := req.TriggerDistanceKm
		if trigger == 0 {
			trigger = domain.DefaultTriggerDistanceKm
		}
		if _, err := s.alerts.Arm(entry.ID, biz.ID, biz.Location, trigger); err != nil {
			// The entry is already committed; a bad alert must not undo the join.
			s.logger.Warn("could not arm proximity alert",
				zap.Int64("entry_id", entry.ID), zap.Error(err))
		}
	}

	s.enqueue(dispatch.Event{
		Kind:       dispatch.KindJoined,
		EntryID:    entry.ID,
		BusinessID: entry.BusinessID,
		Position:   est.Position,
		EtaMinutes: est.EtaMinutes,
		OccurredAt: s.now(),
	})

	s.hooks.OnJoin(est.EtaMinutes)
	return &domain.JoinResult{
		EntryID:    entry.ID,
		Position:   est.Position,
		EtaMinutes: est.EtaMinutes,
	}, nil
}

// Leave abandons the entry and disarms its proximity alert. Leaving an
// entry that already reached a terminal state is a no-op success so
// client retries stay harmless.
func (s *QueueService) Leave(ctx context.Context, entryID int64) error {
	entry, err := s.ledger.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status.IsTerminal() {
		s.alerts.Disarm(entryID)
		return nil
	}

	if _, err := s.ledger.UpdateStatus(ctx, entryID, domain.StatusAbandoned, s.now()); err != nil {
		return err
	}
	s.alerts.Disarm(entryID)
	s.hooks.OnLeave()
	return nil
}

// Status answers a poll with a position and wait at least as fresh as
// the caller's last committed write on the entry.
func (s *QueueService) Status(ctx context.Context, entryID int64) (*domain.StatusResult, error) {
	entry, err := s.ledger.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}

	est, err := s.estimator.ForEntry(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("estimate for status: %w", err)
	}
	return &domain.StatusResult{
		Position:   est.Position,
		EtaMinutes: est.EtaMinutes,
		Status:     entry.Status,
	}, nil
}

// ListQueue returns the business's entries in join order for the
// dashboard. The business must exist.
func (s *QueueService) ListQueue(ctx context.Context, businessID int64, limit int) ([]*domain.QueueEntry, error) {
	if _, err := s.businesses.GetByID(ctx, businessID); err != nil {
		return nil, err
	}
	return s.ledger.ListByBusiness(ctx, businessID, limit)
}

// Advance applies a dashboard lifecycle transition. Moving an entry to
// notified emits an urgent turn-ready event; any terminal transition
// disarms the entry's proximity alert.
func (s *QueueService) Advance(ctx context.Context, entryID int64, to domain.Status) (*domain.QueueEntry, error) {
	if !to.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	entry, err := s.ledger.UpdateStatus(ctx, entryID, to, s.now())
	if err != nil {
		return nil, err
	}

	switch {
	case to == domain.StatusNotified:
		s.enqueue(dispatch.Event{
			Kind:       dispatch.KindTurnReady,
			EntryID:    entry.ID,
			BusinessID: entry.BusinessID,
			OccurredAt: s.now(),
		})
	case to.IsTerminal():
		s.alerts.Disarm(entryID)
	}
	return entry, nil
}

// ArmAlert registers a proximity alert for an active entry, targeting
// the entry's business location.
func (s *QueueService) ArmAlert(ctx context.Context, entryID int64, triggerKm float64) (*proximity.Alert, error) {
	entry, err := s.ledger.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status.IsTerminal() {
		return nil, domain.ErrEntryNotActive
	}

	biz, err := s.businesses.GetByID(ctx, entry.BusinessID)
	if err != nil {
		return nil, err
	}

	if triggerKm == 0 {
		triggerKm = domain.DefaultTriggerDistanceKm
	}
	return s.alerts.Arm(entry.ID, biz.ID, biz.Location, triggerKm)
}

// DisarmAlert removes the entry's alert. Unknown entries are a no-op.
func (s *QueueService) DisarmAlert(entryID int64) {
	s.alerts.Disarm(entryID)
}

// EvaluateProximity runs one evaluation pass over the registered alerts
// for the given observer position. Before evaluating, alerts whose entry
// already left the queue are disarmed; an alert that still fires for an
// entry that abandons in the remaining window is delivered best-effort
// and logged, never escalated.
func (s *QueueService) EvaluateProximity(ctx context.Context, observer geo.Coord) ([]proximity.FiredAlert, error) {
	alerts := s.alerts.Snapshot()

	for _, a := range alerts {
		entry, err := s.ledger.Get(ctx, a.EntryID)
		if err != nil || entry.Status.IsTerminal() {
			s.alerts.Disarm(a.EntryID)
		}
	}

	fired, err := s.evaluator.Evaluate(observer, alerts)
	if err != nil {
		return nil, err
	}

	for _, f := range fired {
		s.alerts.Disarm(f.EntryID)
		s.hooks.OnAlertFired()
		s.enqueue(dispatch.Event{
			Kind:       dispatch.KindProximity,
			EntryID:    f.EntryID,
			BusinessID: f.BusinessID,
			AlertID:    f.AlertID,
			DistanceKm: f.DistanceKm,
			OccurredAt: s.now(),
		})
	}
	return fired, nil
}

// AlertSpec is a caller-supplied alert for a one-shot evaluation pass.
type AlertSpec struct {
	ID                string    `json:"id"`
	BusinessID        int64     `json:"business_id,omitempty"`
	Target            geo.Coord `json:"target"`
	TriggerDistanceKm float64   `json:"trigger_distance_km"`
}

// EvaluateAdHoc evaluates caller-supplied alerts instead of the
// registry. The alerts live only for this pass, so "fires at most once"
// holds trivially; validation failures reject the whole request before
// any distance is computed.
func (s *QueueService) EvaluateAdHoc(_ context.Context, observer geo.Coord, specs []AlertSpec) ([]proximity.FiredAlert, error) {
	alerts := make([]*proximity.Alert, 0, len(specs))
	for _, spec := range specs {
		a, err := proximity.NewAlert(spec.ID, 0, spec.BusinessID, spec.Target, spec.TriggerDistanceKm)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return s.evaluator.Evaluate(observer, alerts)
}

// enqueue hands an event to the dispatch queue. A full queue drops the
// notification, not the state change: the queue operation already
// committed, so we log and move on.
func (s *QueueService) enqueue(e dispatch.Event) {
	if s.q == nil {
		return
	}
	if err := s.q.Enqueue(e); err != nil {
		s.logger.Warn("dispatch queue full, dropping event",
			zap.String("kind", string(e.Kind)),
			zap.Int64("entry_id", e.EntryID),
			zap.Error(err))
	}
}
