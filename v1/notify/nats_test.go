package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	nats "github.com/nats-io/nats.go"
)

func newNATSBus(t *testing.T) (*NATSBus, context.Context) {
	t.Helper()
	addr := os.Getenv("MURLOCK_TEST_NATS_ADDR")

	var conn *nats.Conn
	var s *server.Server
	var err error

	if addr != "" {
		t.Logf("TestNATSBus: using real NATS at %s", addr)
		conn, err = nats.Connect(addr)
	} else {
		s = natsserver.RunRandClientPortServer()
		conn, err = nats.Connect(s.ClientURL())
	}
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	b := NewNATSBus(conn)
	t.Cleanup(func() {
		_ = b.Close()
		conn.Close()
		if s != nil {
			s.Shutdown()
		}
	})
	return b, context.Background()
}

func TestNATSBusPublishWakesSubscriber(t *testing.T) {
	b, ctx := newNATSBus(t)
	ch, err := b.Subscribe(ctx, "unlock.k")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := b.Publish(ctx, "unlock.k"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for wake-up")
	}
	if err := b.Unsubscribe(ctx, "unlock.k", ch); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
}
