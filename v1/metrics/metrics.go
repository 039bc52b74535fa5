package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AcquireAttempts tracks the number of conditional-acquire attempts.
	AcquireAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murlock_acquire_attempts_total",
		Help: "Total number of lock acquire attempts",
	})
	// AcquireFailures tracks acquisitions abandoned after attempt exhaustion.
	AcquireFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murlock_acquire_failures_total",
		Help: "Total number of lock acquisitions that exhausted their attempts",
	})
	// ReleaseFailures tracks releases rejected by the authority store.
	ReleaseFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "murlock_release_failures_total",
		Help: "Total number of releases rejected due to ownership mismatch or absence",
	})
	// HeldLocks reports the number of locks currently held by this process.
	HeldLocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "murlock_held_locks",
		Help: "Current number of locks held",
	})
)

// NewRegistry creates a new Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// RegisterLockMetrics registers murlock metrics on the provided registry.
func RegisterLockMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AcquireAttempts, AcquireFailures, ReleaseFailures, HeldLocks)
}
