package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/waitline/waitline/internal/domain"
)

func entryWith(status domain.Status) *domain.QueueEntry {
	return &domain.QueueEntry{
		ID:         1,
		BusinessID: 1,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestTransition_Table(t *testing.T) {
	all := []domain.Status{
		domain.StatusWaiting, domain.StatusNotified, domain.StatusServing,
		domain.StatusDone, domain.StatusSkipped, domain.StatusAbandoned,
	}
	allowed := map[domain.Status]map[domain.Status]bool{
		domain.StatusWaiting:  {domain.StatusNotified: true, domain.StatusSkipped: true, domain.StatusAbandoned: true},
		domain.StatusNotified: {domain.StatusServing: true, domain.StatusSkipped: true, domain.StatusAbandoned: true},
		domain.StatusServing:  {domain.StatusDone: true, domain.StatusAbandoned: true},
	}

	for _, from := range all {
		for _, to := range all {
			if from == to {
				continue // same-state no-op covered separately
			}
			e := entryWith(from)
			err := domain.Transition(e, to, time.Now().UTC())

			if allowed[from][to] {
				if err != nil {
					t.Fatalf("%s -> %s: expected success, got %v", from, to, err)
				}
				if e.Status != to {
					t.Fatalf("%s -> %s: status not applied, got %s", from, to, e.Status)
				}
				continue
			}

			var ite *domain.InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("%s -> %s: expected InvalidTransitionError, got %v", from, to, err)
			}
			if e.Status != from {
				t.Fatalf("%s -> %s: entry must be unchanged on failure, got %s", from, to, e.Status)
			}
		}
	}
}

func TestTransition_SameStateIsNoOp(t *testing.T) {
	e := entryWith(domain.StatusNotified)
	first := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	e.NotifiedAt = &first

	if err := domain.Transition(e, domain.StatusNotified, first.Add(time.Minute)); err != nil {
		t.Fatalf("expected no-op success, got %v", err)
	}
	if !e.NotifiedAt.Equal(first) {
		t.Fatalf("notifiedAt must keep the first transition's timestamp, got %v", e.NotifiedAt)
	}
}

func TestTransition_StampsTimestampsOnce(t *testing.T) {
	e := entryWith(domain.StatusWaiting)
	t1 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	if err := domain.Transition(e, domain.StatusNotified, t1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.NotifiedAt == nil || !e.NotifiedAt.Equal(t1) {
		t.Fatalf("expected notifiedAt=%v, got %v", t1, e.NotifiedAt)
	}

	t2 := t1.Add(5 * time.Minute)
	if err := domain.Transition(e, domain.StatusServing, t2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.StartedAt == nil || !e.StartedAt.Equal(t2) {
		t.Fatalf("expected startedAt=%v, got %v", t2, e.StartedAt)
	}

	t3 := t2.Add(7 * time.Minute)
	if err := domain.Transition(e, domain.StatusDone, t3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.CompletedAt == nil || !e.CompletedAt.Equal(t3) {
		t.Fatalf("expected completedAt=%v, got %v", t3, e.CompletedAt)
	}
}

func TestTransition_DoneToNotifiedAlwaysFails(t *testing.T) {
	e := entryWith(domain.StatusDone)
	err := domain.Transition(e, domain.StatusNotified, time.Now().UTC())

	var ite *domain.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if ite.From != domain.StatusDone || ite.To != domain.StatusNotified {
		t.Fatalf("unexpected error detail: %v", ite)
	}
}

func TestStatus_ActiveAndTerminal(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusWaiting, domain.StatusNotified, domain.StatusServing} {
		if !s.IsActive() || s.IsTerminal() {
			t.Fatalf("%s must be active and non-terminal", s)
		}
	}
	for _, s := range []domain.Status{domain.StatusDone, domain.StatusSkipped, domain.StatusAbandoned} {
		if s.IsActive() || !s.IsTerminal() {
			t.Fatalf("%s must be terminal and inactive", s)
		}
	}
	if domain.Status("queued").IsValid() {
		t.Fatal("unexpected status accepted as valid")
	}
}
