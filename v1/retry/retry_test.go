package retry

import (
	"testing"
	"time"
)

func TestLinearGrowsWithAttemptIndex(t *testing.T) {
	s := Linear{Base: 50 * time.Millisecond}
	for i, want := range []time.Duration{50, 100, 150, 200} {
		if got := s.Delay(i + 1); got != want*time.Millisecond {
			t.Fatalf("attempt %d: got %v want %v", i+1, got, want*time.Millisecond)
		}
	}
	if got := s.Delay(0); got != 50*time.Millisecond {
		t.Fatalf("attempt 0 clamped: got %v", got)
	}
}

func TestFixedIsConstant(t *testing.T) {
	s := Fixed(20 * time.Millisecond)
	if s.Delay(1) != s.Delay(10) {
		t.Fatal("fixed delay must not vary with attempt")
	}
}

func TestFuncDelegates(t *testing.T) {
	s := Func(func(a int) time.Duration { return time.Duration(a*a) * time.Millisecond })
	if got := s.Delay(3); got != 9*time.Millisecond {
		t.Fatalf("got %v", got)
	}
}

func TestJitteredStaysWithinBounds(t *testing.T) {
	s := Jittered{Strategy: Fixed(10 * time.Millisecond), Jitter: 5 * time.Millisecond}
	for i := 0; i < 100; i++ {
		d := s.Delay(1)
		if d < 10*time.Millisecond || d >= 15*time.Millisecond {
			t.Fatalf("delay %v out of bounds", d)
		}
	}
}

func TestSchedulerBounded(t *testing.T) {
	s := Scheduler{MaxAttempts: 3}
	if !s.ShouldContinue(1) || !s.ShouldContinue(2) {
		t.Fatal("expected continuation below max")
	}
	if s.ShouldContinue(3) {
		t.Fatal("expected stop at max attempts")
	}
}

func TestSchedulerBlockingNeverStops(t *testing.T) {
	s := Scheduler{MaxAttempts: 1, Blocking: true}
	for _, n := range []int{1, 10, 1 << 20} {
		if !s.ShouldContinue(n) {
			t.Fatalf("blocking scheduler stopped at %d", n)
		}
	}
}
