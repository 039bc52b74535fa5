// Package authority talks to the shared store that arbitrates lock state.
// Both primitives execute atomically on the server side; atomicity is never
// reconstructed client-side from separate round trips.
package authority

import (
	"context"
	"time"
)

// Client exposes the two atomic lock primitives of the authority store.
// Implementations must be safe for concurrent use; all synchronization is
// delegated to the store's server-side execution.
type Client interface {
	// Acquire writes (token, ttl) under key and returns true when the key
	// was absent or already owned by token (idempotent re-acquire renews
	// the ttl in place). It returns false when a different token holds the
	// key. A non-nil error always wraps errors.ErrConnection.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// Release deletes the record under key only when its stored owner
	// equals token. It returns false, not an error, when the record is
	// absent or owned by someone else.
	Release(ctx context.Context, key, token string) (bool, error)

	// Close closes the connection. Operations in flight may fail; no
	// draining is provided.
	Close() error
}

// BackoffFunc computes the delay before reconnection attempt retry (1-based).
type BackoffFunc func(retry int) time.Duration

// DefaultReconnectBackoff grows linearly with the retry count, capped at 5s.
func DefaultReconnectBackoff(retry int) time.Duration {
	d := time.Duration(retry) * 500 * time.Millisecond
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
