package authority

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	uuid "github.com/hashicorp/go-uuid"
	redis "github.com/redis/go-redis/v9"

	murlockerrors "github.com/felanios/murlock/v1/errors"
)

// The same-owner branch makes re-acquire idempotent: the holder renews its
// ttl in place without a window for another contender.
var acquireScript = redis.NewScript(`
local owner = redis.call("GET", KEYS[1])
if owner == false or owner == ARGV[1] then
    redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
    return 1
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`)

// RedisOptions configures connection-failure behavior of a Redis client.
type RedisOptions struct {
	// FailFast makes the first connection error fatal: OnFatal fires once
	// and every subsequent operation short-circuits with ErrConnection.
	FailFast bool
	// OnFatal is invoked exactly once when FailFast trips.
	OnFatal func(error)
	// ReconnectBackoff paces the background reconnection probe when
	// FailFast is disabled. Defaults to DefaultReconnectBackoff.
	ReconnectBackoff BackoffFunc
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Redis implements Client against a Redis authority store.
type Redis struct {
	client *redis.Client
	opts   RedisOptions
	id     string

	fatal     atomic.Bool
	probeMu   sync.Mutex
	probing   bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewRedis returns a Redis authority client. It pings the store once so that
// misconfiguration surfaces at startup rather than on the first lock.
func NewRedis(client *redis.Client, opts RedisOptions) (*Redis, error) {
	if opts.ReconnectBackoff == nil {
		opts.ReconnectBackoff = DefaultReconnectBackoff
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	r := &Redis{client: client, opts: opts, id: id, done: make(chan struct{})}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", murlockerrors.ErrConnection, err)
	}
	return r, nil
}

// Acquire implements Client.Acquire as a single server-side script run.
func (r *Redis) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if r.fatal.Load() {
		return false, fmt.Errorf("%w: client is fatal", murlockerrors.ErrConnection)
	}
	res, err := acquireScript.Run(ctx, r.client, []string{key}, token, strconv.FormatInt(ttl.Milliseconds(), 10)).Int64()
	if err != nil && err != redis.Nil {
		if cerr := callerErr(ctx, err); cerr != nil {
			return false, cerr
		}
		return false, r.fail("acquire", key, err)
	}
	return res == 1, nil
}

// Release implements Client.Release. Ownership mismatch and absence are
// reported as false so the manager can apply its unlock-failure policy.
func (r *Redis) Release(ctx context.Context, key, token string) (bool, error) {
	if r.fatal.Load() {
		return false, fmt.Errorf("%w: client is fatal", murlockerrors.ErrConnection)
	}
	res, err := releaseScript.Run(ctx, r.client, []string{key}, token).Int64()
	if err != nil && err != redis.Nil {
		if cerr := callerErr(ctx, err); cerr != nil {
			return false, cerr
		}
		return false, r.fail("release", key, err)
	}
	return res == 1, nil
}

// Close implements Client.Close. It also stops any reconnection probe.
func (r *Redis) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	return r.client.Close()
}

// callerErr distinguishes cancellation and deadline errors originating from
// the caller's ctx. Those are never connection errors: the store may be
// perfectly healthy, so they must not latch fail-fast or start a probe.
func callerErr(ctx context.Context, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return nil
}

func (r *Redis) fail(op, key string, err error) error {
	r.opts.Logger.Warn("authority operation failed",
		"op", op, "key", key, "client", r.id, "err", err)
	if r.opts.FailFast {
		if r.fatal.CompareAndSwap(false, true) && r.opts.OnFatal != nil {
			r.opts.OnFatal(err)
		}
	} else {
		r.ensureProbe()
	}
	return fmt.Errorf("%w: %s: %v", murlockerrors.ErrConnection, op, err)
}

// ensureProbe starts at most one background goroutine that pings the store
// with the configured backoff until it answers again.
func (r *Redis) ensureProbe() {
	r.probeMu.Lock()
	if r.probing {
		r.probeMu.Unlock()
		return
	}
	r.probing = true
	r.probeMu.Unlock()

	go func() {
		defer func() {
			r.probeMu.Lock()
			r.probing = false
			r.probeMu.Unlock()
		}()
		for retry := 1; ; retry++ {
			select {
			case <-r.done:
				return
			case <-time.After(r.opts.ReconnectBackoff(retry)):
			}
			if err := r.client.Ping(context.Background()).Err(); err == nil {
				r.opts.Logger.Info("authority store reachable again",
					"client", r.id, "retries", retry)
				return
			}
		}
	}()
}
