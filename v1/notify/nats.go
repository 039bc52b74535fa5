package notify

import (
	"context"
	"sync"

	nats "github.com/nats-io/nats.go"
)

// NATSBus implements Bus over a NATS connection. One NATS subscription is
// held per key and fanned out to local waiters.
type NATSBus struct {
	conn *nats.Conn
	f    *fanout

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// NewNATSBus returns a NATSBus using the provided connection.
func NewNATSBus(conn *nats.Conn) *NATSBus {
	return &NATSBus{
		conn: conn,
		f:    newFanout(),
		subs: make(map[string]*nats.Subscription),
	}
}

// Publish implements Bus.Publish.
func (b *NATSBus) Publish(_ context.Context, key string) error {
	return b.conn.Publish(key, []byte("1"))
}

// Subscribe implements Bus.Subscribe.
func (b *NATSBus) Subscribe(_ context.Context, key string) (chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[key]; !ok {
		sub, err := b.conn.Subscribe(key, func(*nats.Msg) {
			b.f.notify(key)
		})
		if err != nil {
			return nil, err
		}
		b.subs[key] = sub
	}
	return b.f.add(key), nil
}

// Unsubscribe implements Bus.Unsubscribe.
func (b *NATSBus) Unsubscribe(_ context.Context, key string, ch chan struct{}) error {
	b.mu.Lock()
	var sub *nats.Subscription
	if b.f.remove(key, ch) {
		sub = b.subs[key]
		delete(b.subs, key)
	}
	b.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Unsubscribe()
}

// Close drops every held subscription.
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key, sub := range b.subs {
		_ = sub.Unsubscribe()
		delete(b.subs, key)
	}
	return nil
}
