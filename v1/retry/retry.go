// Package retry provides wait strategies and the attempt scheduler driving
// the lock acquire loop.
package retry

import (
	"math/rand"
	"time"
)

// Strategy computes the delay before the next acquire attempt. attempt is
// 1-based: the delay after the first failed attempt is Delay(1).
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Fixed waits the same duration between every attempt.
type Fixed time.Duration

// Delay implements Strategy.
func (f Fixed) Delay(int) time.Duration { return time.Duration(f) }

// Linear grows the delay as Base times the attempt index. This is the
// default strategy.
type Linear struct {
	Base time.Duration
}

// Delay implements Strategy.
func (l Linear) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return l.Base * time.Duration(attempt)
}

// Func adapts a plain function to a Strategy.
type Func func(attempt int) time.Duration

// Delay implements Strategy.
func (fn Func) Delay(attempt int) time.Duration { return fn(attempt) }

// Jittered adds a random delay in [0, Jitter) on top of the wrapped strategy
// to spread out synchronized contenders.
type Jittered struct {
	Strategy Strategy
	Jitter   time.Duration
}

// Delay implements Strategy.
func (j Jittered) Delay(attempt int) time.Duration {
	d := j.Strategy.Delay(attempt)
	if j.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(j.Jitter)))
	}
	return d
}

// Scheduler decides whether another acquire attempt is permitted.
type Scheduler struct {
	MaxAttempts int
	Blocking    bool
}

// ShouldContinue reports whether a further attempt may be made after
// attemptsMade attempts have already failed. Blocking schedulers always
// continue.
func (s Scheduler) ShouldContinue(attemptsMade int) bool {
	if s.Blocking {
		return true
	}
	return attemptsMade < s.MaxAttempts
}
