package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/felanios/murlock/v1/authority"
	murlockerrors "github.com/felanios/murlock/v1/errors"
	"github.com/felanios/murlock/v1/identity"
	"github.com/felanios/murlock/v1/keys"
	"github.com/felanios/murlock/v1/metrics"
	"github.com/felanios/murlock/v1/notify"
	"github.com/felanios/murlock/v1/retry"
)

var tracer = otel.Tracer("github.com/felanios/murlock/v1/lock")

// ownerTokenKey is the identity-scope slot carrying the acquisition token
// from acquire to release within one call chain.
const ownerTokenKey = "owner_token"

// Manager orchestrates lock acquisition, body execution and release against
// one authority store. It is safe for concurrent use; each call chain gets
// its own identity scope and owner token.
type Manager struct {
	authority authority.Client
	wait      retry.Strategy
	sched     retry.Scheduler
	keys      keys.Builder
	notifier  notify.Bus
	ignore    bool
	logger    *slog.Logger
}

// New returns a Manager driving the given authority client.
func New(client authority.Client, opts Options) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil authority client", murlockerrors.ErrConfiguration)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Manager{
		authority: client,
		wait:      opts.Wait,
		sched:     retry.Scheduler{MaxAttempts: opts.MaxAttempts, Blocking: opts.Blocking},
		keys:      keys.Builder{Prefix: opts.KeyPrefix},
		notifier:  opts.Notifier,
		ignore:    opts.IgnoreUnlockFailure,
		logger:    opts.Logger,
	}, nil
}

// RunWithLock executes body while holding an exclusive lock on name. At most
// one body runs at a time for a given key across every process sharing the
// authority store. Release is always attempted after body returns or panics;
// if both body and release fail, body's error is returned and the release
// failure is logged.
func (m *Manager) RunWithLock(ctx context.Context, name string, ttl time.Duration, body func(context.Context) error, calls ...CallOption) error {
	cc := callConfig{wait: m.wait}
	for _, o := range calls {
		o(&cc)
	}
	key := m.keys.Build(name)

	ctx, span := tracer.Start(ctx, "Manager.RunWithLock",
		trace.WithAttributes(attribute.String("murlock.key", key)))
	defer span.End()

	ctx = identity.EnterScope(ctx)
	if err := identity.Set(ctx, ownerTokenKey, uuid.NewString()); err != nil {
		return err
	}

	attempts, err := m.acquire(ctx, key, ttl, cc.wait)
	span.SetAttributes(attribute.Int("murlock.attempts", attempts))
	if err != nil {
		return err
	}
	metrics.HeldLocks.Inc()
	return m.run(ctx, key, body)
}

// Run executes body under the lock and returns its value. It is the generic
// companion of Manager.RunWithLock.
func Run[T any](ctx context.Context, m *Manager, name string, ttl time.Duration, body func(context.Context) (T, error), calls ...CallOption) (T, error) {
	var out T
	err := m.RunWithLock(ctx, name, ttl, func(ctx context.Context) error {
		v, err := body(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, calls...)
	return out, err
}

// acquire drives the conditional-acquire loop. Contention sleeps and
// retries per the scheduler; a connection error propagates immediately and
// is never retried here.
func (m *Manager) acquire(ctx context.Context, key string, ttl time.Duration, wait retry.Strategy) (int, error) {
	token, err := identity.Get(ctx, ownerTokenKey)
	if err != nil {
		return 0, err
	}
	for attempt := 1; ; attempt++ {
		metrics.AcquireAttempts.Inc()
		ok, err := m.authority.Acquire(ctx, key, token, ttl)
		if err != nil {
			return attempt, err
		}
		if ok {
			return attempt, nil
		}
		if err := m.pause(ctx, key, wait.Delay(attempt)); err != nil {
			return attempt, err
		}
		if !m.sched.ShouldContinue(attempt) {
			metrics.AcquireFailures.Inc()
			return attempt, fmt.Errorf("%w: key %q after %d attempts",
				murlockerrors.ErrAcquisition, key, attempt)
		}
	}
}

// pause sleeps for d, waking early when an unlock event for key arrives.
func (m *Manager) pause(ctx context.Context, key string, d time.Duration) error {
	var wake chan struct{}
	if m.notifier != nil {
		ch, err := m.notifier.Subscribe(ctx, unlockChannel(key))
		if err == nil {
			wake = ch
			defer func() {
				_ = m.notifier.Unsubscribe(context.WithoutCancel(ctx), unlockChannel(key), ch)
			}()
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-wake: // nil channel blocks forever when no notifier is set
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run executes body and releases the lock on every exit path, including
// panics. Body errors take precedence over release failures.
func (m *Manager) run(ctx context.Context, key string, body func(context.Context) error) (err error) {
	defer func() {
		metrics.HeldLocks.Dec()
		relErr := m.release(ctx, key)
		if relErr == nil {
			return
		}
		if err != nil {
			m.logger.Warn("release failed after body error", "key", key, "err", relErr)
			return
		}
		if m.ignore {
			m.logger.Warn("unlock failure ignored", "key", key, "err", relErr)
			return
		}
		err = relErr
	}()
	return body(ctx)
}

// release deletes the record using the owner token from the identity scope.
// It runs detached from the body's cancellation.
func (m *Manager) release(ctx context.Context, key string) error {
	ctx = context.WithoutCancel(ctx)
	token, err := identity.Get(ctx, ownerTokenKey)
	if err != nil {
		return err
	}
	ok, err := m.authority.Release(ctx, key, token)
	if err != nil {
		return err
	}
	if !ok {
		metrics.ReleaseFailures.Inc()
		return fmt.Errorf("%w: key %q not owned at release time", murlockerrors.ErrRelease, key)
	}
	if m.notifier != nil {
		_ = m.notifier.Publish(ctx, unlockChannel(key))
	}
	return nil
}

func unlockChannel(key string) string {
	return "unlock:" + key
}
