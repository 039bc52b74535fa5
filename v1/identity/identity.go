// Package identity provides per-call-chain scoped storage. A scope carries
// the owner token of a lock acquisition from acquire to release across any
// suspension points of the same chain, without being visible to concurrent
// chains sharing the manager.
package identity

import (
	"context"
	"fmt"
	"sync"

	murlockerrors "github.com/felanios/murlock/v1/errors"
)

type scopeKey struct{}

// scope is mutated in place so every continuation holding the scoped context
// observes later writes from the same chain.
type scope struct {
	mu     sync.RWMutex
	values map[string]string
}

// EnterScope attaches a fresh, empty scope to ctx. Scopes do not stack: the
// returned context hides any scope already visible on ctx for the remainder
// of the chain.
func EnterScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, &scope{values: make(map[string]string)})
}

func fromContext(ctx context.Context) (*scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*scope)
	return s, ok
}

// Set stores value under key in the active scope. It returns
// ErrNoActiveContext when ctx carries no scope.
func Set(ctx context.Context, key, value string) error {
	s, ok := fromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: set %q", murlockerrors.ErrNoActiveContext, key)
	}
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Get returns the value stored under key in the active scope. It returns
// ErrNoActiveContext when ctx carries no scope or the key was never set.
func Get(ctx context.Context, key string) (string, error) {
	s, ok := fromContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: get %q", murlockerrors.ErrNoActiveContext, key)
	}
	s.mu.RLock()
	v, present := s.values[key]
	s.mu.RUnlock()
	if !present {
		return "", fmt.Errorf("%w: key %q not set", murlockerrors.ErrNoActiveContext, key)
	}
	return v, nil
}
