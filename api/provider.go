// File: api/provider.go
// Package api defines the readiness provider contract.
// Author: momentics <momentics@gmail.com>
//
// The provider is the injected OS-level readiness backend. The selector
// owns the selection protocol; the provider only answers "which of these
// registrations are ready right now", optionally blocking until one is.

package api

import "time"

// PollEntry pairs a registration with the interest snapshot taken at the
// start of the selection cycle. Interest changes made after the snapshot
// are not visible to the poll in flight.
type PollEntry struct {
	Reg      Registration
	Interest Ops
}

// ReadyEvent reports readiness for one registration.
type ReadyEvent struct {
	Reg   Registration
	Ready Ops
}

// Provider is a pluggable readiness backend.
//
// Timeout semantics for PollOnce follow the epoll convention: a negative
// timeout blocks indefinitely, zero returns immediately, and a positive
// timeout blocks up to that duration (best effort, not real time).
type Provider interface {
	// PollOnce queries readiness for the given entries once, as of the
	// moment the call begins. Entries with empty interest are never passed
	// in. The returned events may be empty on timeout or wakeup.
	PollOnce(entries []PollEntry, timeout time.Duration) ([]ReadyEvent, error)

	// Wakeup forces the in-flight PollOnce, or the next one if none is in
	// flight, to return immediately. Consecutive wakeups with no
	// intervening poll coalesce into one. Safe from any goroutine.
	Wakeup() error

	// Close releases backend resources. Idempotent.
	Close() error
}
