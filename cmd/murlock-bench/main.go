package main

import (
	"context"
	"flag"
	"log"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/felanios/murlock/v1/authority"
	"github.com/felanios/murlock/v1/lock"
)

var (
	addr        = flag.String("addr", "localhost:6379", "Redis address")
	concurrency = flag.Int("c", 16, "Number of concurrent workers")
	iterations  = flag.Int("n", 1000, "Total number of protected sections")
	ttl         = flag.Duration("ttl", 5*time.Second, "Lock ttl")
	key         = flag.String("key", "bench", "Lock key")
)

func main() {
	flag.Parse()

	log.Printf("Starting benchmark: %d sections, %d workers, key %q", *iterations, *concurrency, *key)

	client := redis.NewClient(&redis.Options{Addr: *addr})
	store, err := authority.NewRedis(client, authority.RedisOptions{})
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	defer store.Close()

	m, err := lock.New(store, lock.Options{Blocking: true, BaseWait: time.Millisecond, KeyPrefix: "murlock-bench"})
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}

	ctx := context.Background()
	var ops, errorsCount int64

	perWorker := *iterations / *concurrency
	start := time.Now()

	var g errgroup.Group
	for i := 0; i < *concurrency; i++ {
		g.Go(func() error {
			for j := 0; j < perWorker; j++ {
				err := m.RunWithLock(ctx, *key, *ttl, func(context.Context) error {
					return nil
				})
				if err != nil {
					atomic.AddInt64(&errorsCount, 1)
				}
				atomic.AddInt64(&ops, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	log.Printf("Done: %d ops in %v (%.0f ops/s), %d errors",
		atomic.LoadInt64(&ops), elapsed,
		float64(atomic.LoadInt64(&ops))/elapsed.Seconds(),
		atomic.LoadInt64(&errorsCount))
}
