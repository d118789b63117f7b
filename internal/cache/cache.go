package cache

import (
	"context"
	"time"
)

// BytesCache is a best-effort byte cache. A miss is (nil, false, nil);
// callers must treat any cache failure as a miss, never as a hard error.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
