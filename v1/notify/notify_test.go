package notify

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryPublishWakesSubscribers(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	ch1, err := b.Subscribe(ctx, "unlock:k")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	ch2, err := b.Subscribe(ctx, "unlock:k")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := b.Publish(ctx, "unlock:k"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, ch := range []chan struct{}{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for wake-up")
		}
	}
}

func TestInMemoryUnsubscribeClosesChannel(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	ch, err := b.Subscribe(ctx, "unlock:k")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := b.Unsubscribe(ctx, "unlock:k", ch); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}
	// Publishing to a key without subscribers is a no-op.
	if err := b.Publish(ctx, "unlock:k"); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestInMemoryWakeupsCoalesce(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	ch, _ := b.Subscribe(ctx, "unlock:k")
	for i := 0; i < 5; i++ {
		_ = b.Publish(ctx, "unlock:k")
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for wake-up")
	}
	select {
	case <-ch:
		t.Fatal("wake-ups must coalesce into at most one pending event")
	default:
	}
}

func TestInMemoryPublishDuringUnsubscribe(t *testing.T) {
	// A publisher racing subscribers that churn on the same key must never
	// send on a channel that unsubscribe has already closed.
	b := NewInMemory()
	ctx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			ch, err := b.Subscribe(ctx, "unlock:k")
			if err != nil {
				t.Errorf("subscribe: %v", err)
				return
			}
			if err := b.Unsubscribe(ctx, "unlock:k", ch); err != nil {
				t.Errorf("unsubscribe: %v", err)
				return
			}
		}
	}()
	for {
		select {
		case <-done:
			return
		default:
			_ = b.Publish(ctx, "unlock:k")
		}
	}
}

func TestInMemoryKeysAreIndependent(t *testing.T) {
	b := NewInMemory()
	ctx := context.Background()
	chA, _ := b.Subscribe(ctx, "unlock:a")
	_ = b.Publish(ctx, "unlock:b")
	select {
	case <-chA:
		t.Fatal("wake-up delivered to wrong key")
	case <-time.After(20 * time.Millisecond):
	}
}
