package cache

import (
	"context"
	"time"
)

// Cache is the retention store for previously fetched offer sets.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
