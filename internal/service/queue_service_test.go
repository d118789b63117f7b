package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/dispatch"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/estimate"
	"github.com/waitline/waitline/internal/geo"
	"github.com/waitline/waitline/internal/ledger"
	"github.com/waitline/waitline/internal/proximity"
	"github.com/waitline/waitline/internal/service"
)

var bizLocation = geo.Coord{Lat: 41.0082, Lon: 28.9784}

func newService() (*service.QueueService, *ledger.MemoryLedger, *dispatch.Queue) {
	l := ledger.NewMemoryLedger()
	store := business.NewMemoryStore()
	store.Put(&domain.Business{
		ID:                1,
		Name:              "Corner Barber",
		Type:              "Salon",
		Location:          bizLocation,
		AvgServiceMinutes: 7,
		IsOpen:            true,
	})

	logger := zap.NewNop()
	q := dispatch.New()
	svc := service.NewQueueService(
		l, store,
		estimate.New(l, store, logger),
		proximity.NewRegistry(),
		proximity.NewEvaluator(logger),
		q, logger, service.Hooks{},
	)
	return svc, l, q
}

func join(t *testing.T, svc *service.QueueService, name string) *domain.JoinResult {
	t.Helper()
	res, err := svc.Join(context.Background(), domain.JoinRequest{BusinessID: 1, Name: name})
	if err != nil {
		t.Fatalf("join %s: unexpected error: %v", name, err)
	}
	return res
}

func TestQueueService_EndToEnd(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	a := join(t, svc, "A")
	b := join(t, svc, "B")
	c := join(t, svc, "C")

	tests := []struct {
		name     string
		entryID  int64
		position int
		eta      int
	}{
		{"A", a.EntryID, 1, 0},
		{"B", b.EntryID, 2, 7},
		{"C", c.EntryID, 3, 14},
	}
	for _, tc := range tests {
		st, err := svc.Status(ctx, tc.entryID)
		if err != nil {
			t.Fatalf("status %s: unexpected error: %v", tc.name, err)
		}
		if st.Position != tc.position || st.EtaMinutes != tc.eta {
			t.Fatalf("%s: expected (%d, %d), got (%d, %d)",
				tc.name, tc.position, tc.eta, st.Position, st.EtaMinutes)
		}
		if st.Status != domain.StatusWaiting {
			t.Fatalf("%s: expected waiting, got %s", tc.name, st.Status)
		}
	}

	// A leaves; B re-ranks to the head of the line.
	if err := svc.Leave(ctx, a.EntryID); err != nil {
		t.Fatalf("leave A: unexpected error: %v", err)
	}
	st, err := svc.Status(ctx, b.EntryID)
	if err != nil {
		t.Fatalf("status B: unexpected error: %v", err)
	}
	if st.Position != 1 || st.EtaMinutes != 0 {
		t.Fatalf("expected B at (1, 0) after A left, got (%d, %d)", st.Position, st.EtaMinutes)
	}
}

func TestQueueService_JoinUnknownBusiness(t *testing.T) {
	svc, l, _ := newService()
	ctx := context.Background()

	_, err := svc.Join(ctx, domain.JoinRequest{BusinessID: 42, Name: "A"})
	if !errors.Is(err, domain.ErrUnknownBusiness) {
		t.Fatalf("expected ErrUnknownBusiness, got %v", err)
	}

	// No entry may be created by a failed join.
	entries, _ := l.ListByBusiness(ctx, 42, 0)
	if len(entries) != 0 {
		t.Fatalf("failed join must create no entry, found %d", len(entries))
	}
}

func TestQueueService_JoinValidation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	if _, err := svc.Join(ctx, domain.JoinRequest{BusinessID: 0}); !errors.Is(err, domain.ErrBusinessIDRequired) {
		t.Fatalf("expected ErrBusinessIDRequired, got %v", err)
	}

	req := domain.JoinRequest{BusinessID: 1, ArmProximityAlert: true, TriggerDistanceKm: -1}
	if _, err := svc.Join(ctx, req); !errors.Is(err, domain.ErrInvalidTriggerDistance) {
		t.Fatalf("expected ErrInvalidTriggerDistance, got %v", err)
	}
}

func TestQueueService_JoinDefaultsNameToGuest(t *testing.T) {
	svc, l, _ := newService()
	res := join(t, svc, "")

	entry, err := l.Get(context.Background(), res.EntryID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.CustomerName != "Guest" {
		t.Fatalf("expected Guest, got %q", entry.CustomerName)
	}
}

func TestQueueService_LeaveIsIdempotent(t *testing.T) {
	svc, l, _ := newService()
	ctx := context.Background()

	a := join(t, svc, "A")
	if err := svc.Leave(ctx, a.EntryID); err != nil {
		t.Fatalf("first leave: unexpected error: %v", err)
	}
	if err := svc.Leave(ctx, a.EntryID); err != nil {
		t.Fatalf("second leave must be a no-op success, got %v", err)
	}

	entry, _ := l.Get(ctx, a.EntryID)
	if entry.Status != domain.StatusAbandoned {
		t.Fatalf("expected abandoned, got %s", entry.Status)
	}
}

func TestQueueService_StatusUnknownEntry(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Status(context.Background(), 999)
	if !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestQueueService_StatusTerminalEntry(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	a := join(t, svc, "A")
	if err := svc.Leave(ctx, a.EntryID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := svc.Status(ctx, a.EntryID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Position != 0 || st.EtaMinutes != 0 || st.Status != domain.StatusAbandoned {
		t.Fatalf("expected (0, 0, abandoned), got (%d, %d, %s)", st.Position, st.EtaMinutes, st.Status)
	}
}

func TestQueueService_AdvanceLifecycle(t *testing.T) {
	svc, _, q := newService()
	ctx := context.Background()

	a := join(t, svc, "A")
	drain(q) // discard the join confirmation

	entry, err := svc.Advance(ctx, a.EntryID, domain.StatusNotified)
	if err != nil {
		t.Fatalf("notify: unexpected error: %v", err)
	}
	if entry.Status != domain.StatusNotified || entry.NotifiedAt == nil {
		t.Fatalf("expected notified with timestamp, got %+v", entry)
	}

	// Notifying emits an urgent turn-ready event.
	ev, ok := q.Dequeue(ctx)
	if !ok || ev.Kind != dispatch.KindTurnReady {
		t.Fatalf("expected turn_ready event, got %+v ok=%v", ev, ok)
	}

	if _, err := svc.Advance(ctx, a.EntryID, domain.StatusServing); err != nil {
		t.Fatalf("serve: unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, a.EntryID, domain.StatusDone); err != nil {
		t.Fatalf("complete: unexpected error: %v", err)
	}

	// done -> notified is always illegal.
	_, err = svc.Advance(ctx, a.EntryID, domain.StatusNotified)
	var ite *domain.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestQueueService_ListQueue(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	join(t, svc, "A")
	join(t, svc, "B")

	entries, err := svc.ListQueue(ctx, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].CustomerName != "A" || entries[1].CustomerName != "B" {
		t.Fatalf("expected [A B] in join order, got %d entries", len(entries))
	}

	if _, err := svc.ListQueue(ctx, 42, 0); !errors.Is(err, domain.ErrUnknownBusiness) {
		t.Fatalf("expected ErrUnknownBusiness, got %v", err)
	}
}

func TestQueueService_ProximityLifecycle(t *testing.T) {
	svc, _, q := newService()
	ctx := context.Background()

	res, err := svc.Join(ctx, domain.JoinRequest{
		BusinessID:        1,
		Name:              "A",
		ArmProximityAlert: true,
		TriggerDistanceKm: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	drain(q)

	// Observer at the business's door: the alert fires once.
	fired, err := svc.EvaluateProximity(ctx, bizLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fired) != 1 || fired[0].EntryID != res.EntryID {
		t.Fatalf("expected one fire for entry %d, got %+v", res.EntryID, fired)
	}

	ev, ok := q.Dequeue(ctx)
	if !ok || ev.Kind != dispatch.KindProximity || ev.EntryID != res.EntryID {
		t.Fatalf("expected proximity event for entry %d, got %+v", res.EntryID, ev)
	}

	// A second pass finds nothing: the fired alert was disarmed.
	fired, err = svc.EvaluateProximity(ctx, bizLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("expected no re-fire, got %d", len(fired))
	}
}

func TestQueueService_LeaveDisarmsAlert(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	res, err := svc.Join(ctx, domain.JoinRequest{BusinessID: 1, Name: "A", ArmProximityAlert: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Leave(ctx, res.EntryID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fired, err := svc.EvaluateProximity(ctx, bizLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("alert for a departed customer must not fire, got %d", len(fired))
	}
}

func TestQueueService_ArmAlertRules(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	a := join(t, svc, "A")

	alert, err := svc.ArmAlert(ctx, a.EntryID, 0) // default trigger distance
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alert.TriggerDistanceKm != domain.DefaultTriggerDistanceKm {
		t.Fatalf("expected default trigger %f, got %f",
			domain.DefaultTriggerDistanceKm, alert.TriggerDistanceKm)
	}

	if _, err := svc.ArmAlert(ctx, 999, 0.5); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	if err := svc.Leave(ctx, a.EntryID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ArmAlert(ctx, a.EntryID, 0.5); !errors.Is(err, domain.ErrEntryNotActive) {
		t.Fatalf("expected ErrEntryNotActive, got %v", err)
	}
}

func TestQueueService_EvaluateAdHoc(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	specs := []service.AlertSpec{
		{ID: "near", Target: bizLocation, TriggerDistanceKm: 1.0},
		{ID: "far", Target: geo.Coord{Lat: 39.9334, Lon: 32.8597}, TriggerDistanceKm: 1.0},
	}
	fired, err := svc.EvaluateAdHoc(ctx, bizLocation, specs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fired) != 1 || fired[0].AlertID != "near" {
		t.Fatalf("expected only the near alert to fire, got %+v", fired)
	}

	bad := []service.AlertSpec{{ID: "x", Target: bizLocation, TriggerDistanceKm: 0}}
	if _, err := svc.EvaluateAdHoc(ctx, bizLocation, bad); !errors.Is(err, domain.ErrInvalidTriggerDistance) {
		t.Fatalf("expected ErrInvalidTriggerDistance, got %v", err)
	}
}

func drain(q *dispatch.Queue) {
	for {
		urgent, normal := q.Depths()
		if urgent == 0 && normal == 0 {
			return
		}
		q.Dequeue(context.Background())
	}
}
