package ports

import (
	"context"
	"time"
)

// OutputCache stores rendered outputs shared across sessions, keyed by the hash of the
// control values an output depends on. Implementations must be safe for concurrent use.
type OutputCache interface {
	// Get returns the cached bytes and true, or nil and false on a miss
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}
