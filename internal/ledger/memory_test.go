package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/ledger"
)

func cursorOf(e *domain.QueueEntry) ledger.Cursor {
	return ledger.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

func TestMemoryLedger_AppendAssignsIncreasingCursors(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	var prev ledger.Cursor
	for i := 0; i < 50; i++ {
		e, err := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c := cursorOf(e)
		if i > 0 {
			if c.AtOrBefore(prev) {
				t.Fatalf("cursor %+v must sort strictly after %+v", c, prev)
			}
		}
		prev = c
	}
}

func TestMemoryLedger_CountActiveAtOrBefore(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	a, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "A"})
	b, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "B"})
	c, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "C"})

	// Another business's entries never leak into the count.
	if _, err := l.Append(ctx, ledger.AppendInput{BusinessID: 2, CustomerName: "X"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, e := range []*domain.QueueEntry{a, b, c} {
		got, err := l.CountActiveAtOrBefore(ctx, 1, cursorOf(e))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != i+1 {
			t.Fatalf("expected count %d for entry %s, got %d", i+1, e.CustomerName, got)
		}
	}
}

func TestMemoryLedger_TerminalEntriesNeverCount(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	a, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "A"})
	b, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "B"})

	if _, err := l.UpdateStatus(ctx, a.ID, domain.StatusAbandoned, time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := l.CountActiveAtOrBefore(ctx, 1, cursorOf(b))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("abandoned entry must not count, expected 1 got %d", got)
	}

	// The abandoned entry does not even count toward itself.
	got, err = l.CountActiveAtOrBefore(ctx, 1, cursorOf(a))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 for terminal entry's own cutoff, got %d", got)
	}
}

func TestMemoryLedger_UpdateStatus(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	e, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "A"})

	updated, err := l.UpdateStatus(ctx, e.ID, domain.StatusNotified, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusNotified || updated.NotifiedAt == nil {
		t.Fatalf("expected notified with timestamp, got %+v", updated)
	}

	// Illegal move fails and leaves the stored entry untouched.
	_, err = l.UpdateStatus(ctx, e.ID, domain.StatusDone, time.Now().UTC())
	var ite *domain.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	stored, _ := l.Get(ctx, e.ID)
	if stored.Status != domain.StatusNotified {
		t.Fatalf("entry must be unchanged after failed transition, got %s", stored.Status)
	}
}

func TestMemoryLedger_GetUnknownEntry(t *testing.T) {
	l := ledger.NewMemoryLedger()
	if _, err := l.Get(context.Background(), 404); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := l.UpdateStatus(context.Background(), 404, domain.StatusNotified, time.Now().UTC()); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestMemoryLedger_ListByBusinessOrdered(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := l.Append(ctx, ledger.AppendInput{BusinessID: 7, CustomerName: name}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := l.ListByBusiness(ctx, 7, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if cursorOf(entries[i]).AtOrBefore(cursorOf(entries[i-1])) {
			t.Fatalf("entries out of order at %d", i)
		}
	}

	limited, err := l.ListByBusiness(ctx, 7, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(limited))
	}
}

// Concurrent appends across two businesses must neither lose entries nor
// produce duplicate or out-of-order cursors within a business.
func TestMemoryLedger_ConcurrentAppends(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	const perBusiness = 100
	var wg sync.WaitGroup
	for _, businessID := range []int64{1, 2} {
		for i := 0; i < perBusiness; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				if _, err := l.Append(ctx, ledger.AppendInput{BusinessID: id, CustomerName: "c"}); err != nil {
					t.Errorf("append failed: %v", err)
				}
			}(businessID)
		}
	}
	wg.Wait()

	for _, businessID := range []int64{1, 2} {
		entries, err := l.ListByBusiness(ctx, businessID, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(entries) != perBusiness {
			t.Fatalf("business %d: expected %d entries, got %d", businessID, perBusiness, len(entries))
		}
		last := entries[len(entries)-1]
		count, err := l.CountActiveAtOrBefore(ctx, businessID, cursorOf(last))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count != perBusiness {
			t.Fatalf("business %d: committed appends lost from count: %d", businessID, count)
		}
	}
}

func TestMemoryLedger_ClonesDoNotAliasStore(t *testing.T) {
	l := ledger.NewMemoryLedger()
	ctx := context.Background()

	e, _ := l.Append(ctx, ledger.AppendInput{BusinessID: 1, CustomerName: "A"})
	e.Status = domain.StatusDone // mutating the returned copy

	stored, _ := l.Get(ctx, e.ID)
	if stored.Status != domain.StatusWaiting {
		t.Fatalf("returned entry must be a clone, store shows %s", stored.Status)
	}
}
