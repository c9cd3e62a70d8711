// File: api/endpoint.go
// Package api defines the Endpoint collaborator contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Endpoint is an I/O-capable resource that can be registered with a
// selector. The selector never owns the endpoint: its lifetime belongs to
// the caller, and closing it on the caller's side must cancel any
// registrations bound to it (see Binder).
type Endpoint interface {
	// QueryReady reports which of the interest operations are currently
	// ready. It is invoked only by providers that poll endpoints directly;
	// fd-based providers (epoll) bypass it.
	QueryReady(interest Ops) (Ops, error)

	// Deregister is invoked exactly once per purged registration, during
	// the purge step of a selection cycle or during selector close.
	Deregister() error
}

// FDEndpoint is implemented by endpoints backed by an OS file descriptor.
// The epoll provider serves only endpoints with this capability.
type FDEndpoint interface {
	Endpoint
	FD() uintptr
}

// Binder is implemented by endpoints that track their registrations so
// that closing the endpoint can cancel them. The selector calls Bind on
// successful registration and Unbind when the registration is purged.
type Binder interface {
	Bind(reg Registration)
	Unbind(reg Registration)
}

// Registration is the narrow handle an endpoint or provider holds for a
// registered key. It carries no ownership in either direction.
type Registration interface {
	// Endpoint returns the endpoint this registration binds.
	Endpoint() Endpoint

	// Cancel marks the registration for removal at the next selection
	// cycle. Idempotent, callable from any goroutine.
	Cancel()

	// IsValid reports whether the registration has neither been cancelled
	// nor outlived its selector. A true result may become stale at any
	// moment: cancellation is asynchronous.
	IsValid() bool
}
