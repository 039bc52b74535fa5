package lock

import (
	"fmt"
	"log/slog"
	"time"

	murlockerrors "github.com/felanios/murlock/v1/errors"
	"github.com/felanios/murlock/v1/notify"
	"github.com/felanios/murlock/v1/retry"
)

const (
	defaultBaseWait    = 300 * time.Millisecond
	defaultMaxAttempts = 3
)

// Options configures a Manager.
type Options struct {
	// BaseWait seeds the default linear wait strategy (BaseWait × attempt).
	// Ignored when Wait is set. Defaults to 300ms.
	BaseWait time.Duration
	// MaxAttempts bounds the acquire loop. Ignored when Blocking is set.
	// Defaults to 3.
	MaxAttempts int
	// Blocking retries acquisition indefinitely until success.
	Blocking bool
	// Wait overrides the default linear strategy for every call.
	Wait retry.Strategy
	// IgnoreUnlockFailure logs release failures instead of returning them.
	IgnoreUnlockFailure bool
	// KeyPrefix, when non-empty, is prepended to every lock key. Leave
	// empty for fully caller-specified keys.
	KeyPrefix string
	// Notifier optionally wakes blocked waiters when a lock is released.
	Notifier notify.Bus
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o *Options) validate() error {
	if o.BaseWait < 0 {
		return fmt.Errorf("%w: negative base wait %v", murlockerrors.ErrConfiguration, o.BaseWait)
	}
	if o.MaxAttempts < 0 {
		return fmt.Errorf("%w: negative max attempts %d", murlockerrors.ErrConfiguration, o.MaxAttempts)
	}
	if o.BaseWait == 0 {
		o.BaseWait = defaultBaseWait
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Wait == nil {
		o.Wait = retry.Linear{Base: o.BaseWait}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return nil
}

type callConfig struct {
	wait retry.Strategy
}

// CallOption overrides per-call behavior of RunWithLock.
type CallOption func(*callConfig)

// WithWait overrides the wait strategy for a single call.
func WithWait(s retry.Strategy) CallOption {
	return func(c *callConfig) { c.wait = s }
}

// WithFixedWait overrides the wait strategy with a fixed delay.
func WithFixedWait(d time.Duration) CallOption {
	return WithWait(retry.Fixed(d))
}

// WithWaitFunc overrides the wait strategy with a function of the attempt
// number.
func WithWaitFunc(fn func(attempt int) time.Duration) CallOption {
	return WithWait(retry.Func(fn))
}
