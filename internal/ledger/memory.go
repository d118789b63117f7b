package ledger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/waitline/waitline/internal/domain"
)

// MemoryLedger is an in-memory Ledger. It backs the memory store mode and
// every unit test; no mock-generation library needed.
//
// Entries are sharded per business. Each shard has its own lock, so
// appends and counts for one business never block another business's
// callers. IDs come from a process-wide sequence, and a shard never hands
// out a createdAt earlier than its previous one, so (createdAt, id) is
// strictly increasing within a shard.
type MemoryLedger struct {
	mu     sync.RWMutex
	shards map[int64]*shard
	index  map[int64]*shard // entryID -> owning shard

	lastID atomic.Int64
	now    func() time.Time
}

type shard struct {
	mu          sync.RWMutex
	entries     []*domain.QueueEntry // maintained in (createdAt, id) order
	lastCreated time.Time
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		shards: make(map[int64]*shard),
		index:  make(map[int64]*shard),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *MemoryLedger) shardFor(businessID int64) *shard {
	l.mu.RLock()
	s, ok := l.shards[businessID]
	l.mu.RUnlock()
	if ok {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok = l.shards[businessID]; ok {
		return s
	}
	s = &shard{}
	l.shards[businessID] = s
	return s
}

func (l *MemoryLedger) Append(_ context.Context, in AppendInput) (*domain.QueueEntry, error) {
	s := l.shardFor(in.BusinessID)

	s.mu.Lock()
	createdAt := l.now()
	if createdAt.Before(s.lastCreated) {
		createdAt = s.lastCreated // monotonic per shard; id breaks ties
	}
	s.lastCreated = createdAt

	e := &domain.QueueEntry{
		ID:           l.lastID.Add(1),
		BusinessID:   in.BusinessID,
		CustomerName: in.CustomerName,
		Phone:        clonePhone(in.Phone),
		Status:       domain.StatusWaiting,
		CreatedAt:    createdAt,
	}
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	l.mu.Lock()
	l.index[e.ID] = s
	l.mu.Unlock()

	return cloneEntry(e), nil
}

func (l *MemoryLedger) Get(_ context.Context, entryID int64) (*domain.QueueEntry, error) {
	s, e := l.find(entryID)
	if e == nil {
		return nil, domain.ErrEntryNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEntry(e), nil
}

func (l *MemoryLedger) CountActiveAtOrBefore(_ context.Context, businessID int64, cutoff Cursor) (int, error) {
	s := l.shardFor(businessID)

	// Holding the shard read lock for the whole scan gives the single
	// consistent snapshot the position invariant requires.
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries {
		c := Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
		if !c.AtOrBefore(cutoff) {
			break // entries are cursor-ordered
		}
		if e.Status.IsActive() {
			count++
		}
	}
	return count, nil
}

func (l *MemoryLedger) UpdateStatus(_ context.Context, entryID int64, to domain.Status, now time.Time) (*domain.QueueEntry, error) {
	s, e := l.find(entryID)
	if e == nil {
		return nil, domain.ErrEntryNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := domain.Transition(e, to, now); err != nil {
		return nil, err
	}
	return cloneEntry(e), nil
}

func (l *MemoryLedger) ListByBusiness(_ context.Context, businessID int64, limit int) ([]*domain.QueueEntry, error) {
	s := l.shardFor(businessID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*domain.QueueEntry, 0, n)
	for _, e := range s.entries[:n] {
		out = append(out, cloneEntry(e))
	}
	return out, nil
}

func (l *MemoryLedger) find(entryID int64) (*shard, *domain.QueueEntry) {
	l.mu.RLock()
	s, ok := l.index[entryID]
	l.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == entryID {
			return s, e
		}
	}
	return nil, nil
}

func cloneEntry(e *domain.QueueEntry) *domain.QueueEntry {
	clone := *e
	clone.Phone = clonePhone(e.Phone)
	clone.NotifiedAt = cloneTime(e.NotifiedAt)
	clone.StartedAt = cloneTime(e.StartedAt)
	clone.CompletedAt = cloneTime(e.CompletedAt)
	return &clone
}

func clonePhone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
