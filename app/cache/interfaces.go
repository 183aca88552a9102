package cache

import (
	"context"
	"time"
)

// Cache is a small keyed string cache used for lookups that are repeated
// heavily within and across ingestion cycles (e.g. team alias resolution).
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
