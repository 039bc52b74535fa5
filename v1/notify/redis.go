package notify

import (
	"context"
	"sync"

	redis "github.com/redis/go-redis/v9"
)

// RedisBus implements Bus over Redis pub/sub. One PubSub subscription is
// held per key and fanned out to local waiters.
type RedisBus struct {
	client *redis.Client
	f      *fanout

	mu      sync.Mutex
	pubsubs map[string]*redis.PubSub
}

// NewRedisBus returns a RedisBus using the provided client.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client:  client,
		f:       newFanout(),
		pubsubs: make(map[string]*redis.PubSub),
	}
}

// Publish implements Bus.Publish.
func (b *RedisBus) Publish(ctx context.Context, key string) error {
	return b.client.Publish(ctx, key, "1").Err()
}

// Subscribe implements Bus.Subscribe.
func (b *RedisBus) Subscribe(ctx context.Context, key string) (chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pubsubs[key]; !ok {
		ps := b.client.Subscribe(ctx, key)
		if _, err := ps.Receive(ctx); err != nil {
			_ = ps.Close()
			return nil, err
		}
		b.pubsubs[key] = ps
		go func() {
			for range ps.Channel() {
				b.f.notify(key)
			}
		}()
	}
	return b.f.add(key), nil
}

// Unsubscribe implements Bus.Unsubscribe. The last-subscriber check and the
// pubsub teardown happen under one lock so a concurrent Subscribe cannot
// attach to an entry being torn down.
func (b *RedisBus) Unsubscribe(ctx context.Context, key string, ch chan struct{}) error {
	b.mu.Lock()
	var ps *redis.PubSub
	if b.f.remove(key, ch) {
		ps = b.pubsubs[key]
		delete(b.pubsubs, key)
	}
	b.mu.Unlock()
	if ps == nil {
		return nil
	}
	_ = ps.Unsubscribe(ctx, key)
	return ps.Close()
}

// Close closes every held subscription.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, ps := range b.pubsubs {
		_ = ps.Close()
		delete(b.pubsubs, key)
	}
	return nil
}
