// Package notify propagates unlock events so blocked waiters can retry
// before their full backoff delay elapses. Delivery is best effort; lock
// correctness never depends on it.
package notify

import (
	"context"
	"sync"
)

// Bus is a minimal pub/sub surface for unlock events. Subscription channels
// are buffered with capacity 1 and receive coalesced wake-ups.
type Bus interface {
	Publish(ctx context.Context, key string) error
	Subscribe(ctx context.Context, key string) (chan struct{}, error)
	Unsubscribe(ctx context.Context, key string, ch chan struct{}) error
}

// fanout tracks subscriber channels per key. Sends never block: a waiter
// that has not drained its previous wake-up needs no second one.
type fanout struct {
	mu    sync.Mutex
	chans map[string][]chan struct{}
}

func newFanout() *fanout {
	return &fanout{chans: make(map[string][]chan struct{})}
}

func (f *fanout) add(key string) chan struct{} {
	ch := make(chan struct{}, 1)
	f.mu.Lock()
	f.chans[key] = append(f.chans[key], ch)
	f.mu.Unlock()
	return ch
}

// remove reports whether the key has no subscribers left.
func (f *fanout) remove(key string, ch chan struct{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.chans[key]
	for i, c := range subs {
		if c == ch {
			subs[i] = subs[len(subs)-1]
			f.chans[key] = subs[:len(subs)-1]
			close(c)
			break
		}
	}
	if len(f.chans[key]) == 0 {
		delete(f.chans, key)
		return true
	}
	return false
}

// notify sends while holding the mutex so a concurrent remove cannot close
// a channel mid-send. Sends never block, so the critical section stays short.
func (f *fanout) notify(key string) {
	f.mu.Lock()
	for _, ch := range f.chans[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	f.mu.Unlock()
}

// InMemory is a process-local Bus, mainly for tests and single-node use.
type InMemory struct {
	f *fanout
}

// NewInMemory returns a new in-memory bus.
func NewInMemory() *InMemory {
	return &InMemory{f: newFanout()}
}

// Publish implements Bus.Publish.
func (b *InMemory) Publish(_ context.Context, key string) error {
	b.f.notify(key)
	return nil
}

// Subscribe implements Bus.Subscribe.
func (b *InMemory) Subscribe(ctx context.Context, key string) (chan struct{}, error) {
	return b.f.add(key), nil
}

// Unsubscribe implements Bus.Unsubscribe.
func (b *InMemory) Unsubscribe(_ context.Context, key string, ch chan struct{}) error {
	b.f.remove(key, ch)
	return nil
}
