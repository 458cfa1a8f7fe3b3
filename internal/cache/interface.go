package cache

import (
	"context"
	"time"
)

// Cache defines the primitive operations for a TTL key-value cache.
// T is the type of value stored in the cache (e.g. string or a struct).
//
// The login flow stores two kinds of single-use entries here: pending
// authorization state (consumed when the provider redirects back) and relay
// results (consumed when the frontend exchanges its temp token). Both rely
// on Take being atomic: under concurrent callers exactly one Take for a key
// may succeed.
type Cache[T any] interface {
	// Get retrieves a single value from cache.
	// Returns ErrCacheMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) (T, error)

	// Set stores a single value in cache with TTL
	Set(ctx context.Context, key string, value T, ttl time.Duration) error

	// Take retrieves a value and deletes it in one atomic step.
	// Returns ErrCacheMiss if the key does not exist, has expired, or was
	// already taken by a concurrent caller.
	Take(ctx context.Context, key string) (T, error)

	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error

	// Close closes the cache connection
	Close() error

	// Health checks if the cache is healthy
	Health(ctx context.Context) error
}
