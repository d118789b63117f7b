package business

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/waitline/waitline/internal/cache"
	"github.com/waitline/waitline/internal/domain"
)

// CachedStore wraps a Store with a best-effort byte cache. Every Status
// poll re-reads the business for its service time, so the record is
// cached whole as JSON. Cache failures fall through to the inner store;
// a missing record is never cached (unknown-business joins must keep
// failing loudly).
type CachedStore struct {
	inner Store
	cache cache.BytesCache
	ttl   time.Duration
}

func NewCachedStore(inner Store, c cache.BytesCache, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, cache: c, ttl: ttl}
}

func (s *CachedStore) GetByID(ctx context.Context, id int64) (*domain.Business, error) {
	key := cacheKey(id)

	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var b domain.Business
		if json.Unmarshal(raw, &b) == nil {
			return &b, nil
		}
	}

	b, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(b); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.ttl)
	}
	return b, nil
}

// List always goes to the inner store: the catalogue endpoint is not on
// the polling hot path.
func (s *CachedStore) List(ctx context.Context, limit int) ([]*domain.Business, error) {
	return s.inner.List(ctx, limit)
}

func cacheKey(id int64) string {
	return fmt.Sprintf("business:%d", id)
}
