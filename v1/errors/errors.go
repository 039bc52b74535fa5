// Package errors defines the error taxonomy shared by the murlock packages.
package errors

import "errors"

var (
	// ErrAcquisition is returned when a lock could not be acquired within
	// the configured number of attempts.
	ErrAcquisition = errors.New("murlock: lock acquisition failed")
	// ErrConnection is returned when the authority store is unreachable or
	// erroring. It is never the result of ordinary contention.
	ErrConnection = errors.New("murlock: authority store unavailable")
	// ErrRelease is returned when a release found the record absent or
	// owned by a different token.
	ErrRelease = errors.New("murlock: lock release failed")
	// ErrNoActiveContext is returned when identity storage is accessed
	// outside an active scope. This is a programming error.
	ErrNoActiveContext = errors.New("murlock: no active identity scope")
	// ErrConfiguration is returned for invalid option combinations.
	ErrConfiguration = errors.New("murlock: invalid configuration")
)
