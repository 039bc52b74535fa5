// Package lock coordinates cross-process mutual exclusion over named keys
// through a shared authority store. A Manager runs a caller-supplied body
// while holding a store-enforced exclusive lock, retrying acquisition with a
// configurable wait strategy in bounded or blocking mode, and always
// attempting release afterwards.
//
// Locks are not renewed while the body runs: a body that outlives its
// requested ttl loses the record to expiry, and another caller may acquire
// the same key while the first body is still executing. Callers must size
// the ttl to cover the body's worst case.
package lock
