package cache

import (
	"context"
	"time"
)

// Cache is the key-value port used by the read path and the worker
// processors. Entries are a derived projection of the relational store and
// may be dropped at any time without correctness loss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// ClearPattern removes every key matching the glob pattern and reports
	// how many were deleted.
	ClearPattern(ctx context.Context, pattern string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
}
