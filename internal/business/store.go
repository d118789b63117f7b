package business

import (
	"context"
	"sort"
	"sync"

	"github.com/waitline/waitline/internal/domain"
)

// Store reads business records. Businesses are created by onboarding,
// outside this service; the queue core never writes them.
type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Business, error)
	List(ctx context.Context, limit int) ([]*domain.Business, error)
}

// MemoryStore is the in-memory Store used in memory mode and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[int64]*domain.Business
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{businesses: make(map[int64]*domain.Business)}
}

// Put seeds a business record. Used by dev-mode seeding and tests.
func (s *MemoryStore) Put(b *domain.Business) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *b
	s.businesses[b.ID] = &clone
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[id]
	if !ok {
		return nil, domain.ErrUnknownBusiness
	}
	clone := *b
	return &clone, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		clone := *b
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
