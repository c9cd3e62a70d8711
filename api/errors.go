// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared by the selector core and its providers.

package api

import "fmt"

// Errors reported by the selection entry points and collaborators.
var (
	// ErrSelectorClosed is returned by every operation other than Wakeup
	// and Close once the selector has been closed.
	ErrSelectorClosed = fmt.Errorf("selector is closed")

	// ErrKeyCancelled is returned when an operation requires a still-valid
	// registration but the key has been cancelled.
	ErrKeyCancelled = fmt.Errorf("registration key is cancelled")

	// ErrNegativeTimeout is the usage error for a negative select timeout.
	// It is reported before any selector state is touched.
	ErrNegativeTimeout = fmt.Errorf("negative timeout")

	// ErrNilAction is the usage error for a nil per-key action.
	ErrNilAction = fmt.Errorf("nil action")

	// ErrNilProvider is the usage error for opening a selector without a
	// readiness backend.
	ErrNilProvider = fmt.Errorf("nil provider")

	// ErrNilEndpoint is the usage error for registering a nil endpoint.
	ErrNilEndpoint = fmt.Errorf("nil endpoint")

	// ErrProviderClosed is returned by a provider whose resources have
	// already been released.
	ErrProviderClosed = fmt.Errorf("provider is closed")

	// ErrNotPollable is returned by fd-based providers for endpoints that
	// do not expose a file descriptor.
	ErrNotPollable = fmt.Errorf("endpoint exposes no file descriptor")
)
