// File: mux/key.go
// Author: momentics <momentics@gmail.com>
//
// Registration key: binds one endpoint to one selector, carrying the
// mutable interest set and the last-observed ready set.

package mux

import (
	"sync/atomic"

	"github.com/momentics/hioload-mux/api"
)

// Key represents the registration of an endpoint with a selector. Keys are
// created by Selector.Register and stay in the key set until cancelled and
// purged by a selection cycle. A Key holds non-owning back-references only:
// destroying it never tears down the endpoint or the selector.
type Key struct {
	sel *Selector
	ep  api.Endpoint

	interest  atomic.Uint32
	ready     atomic.Uint32
	cancelled atomic.Bool
}

var _ api.Registration = (*Key)(nil)

func newKey(s *Selector, ep api.Endpoint, interest api.Ops) *Key {
	k := &Key{sel: s, ep: ep}
	k.interest.Store(uint32(interest))
	return k
}

// Endpoint returns the endpoint this key registers.
func (k *Key) Endpoint() api.Endpoint { return k.ep }

// Selector returns the selector this key is registered with.
func (k *Key) Selector() *Selector { return k.sel }

// Interest returns the current interest set.
func (k *Key) Interest() api.Ops { return api.Ops(k.interest.Load()) }

// SetInterest replaces the interest set. The change takes effect at the
// next selection cycle, never the one in flight. Fails once the key is
// cancelled or its selector closed.
func (k *Key) SetInterest(ops api.Ops) error {
	if k.sel.closed.Load() {
		return api.ErrSelectorClosed
	}
	if k.cancelled.Load() {
		return api.ErrKeyCancelled
	}
	k.interest.Store(uint32(ops))
	return nil
}

// Ready returns the operations observed ready by the most recent selection
// cycle that touched this key, empty if the key was never selected. The
// value is refreshed only by selection cycles; removing the key from the
// ready set does not clear it.
func (k *Key) Ready() api.Ops { return api.Ops(k.ready.Load()) }

func (k *Key) setReady(ops api.Ops) { k.ready.Store(uint32(ops)) }

// Cancel marks the key for removal. The key stays in the key set and the
// ready set until the next cycle's purge step deregisters its endpoint.
// Idempotent and safe from any goroutine, including a selection action.
func (k *Key) Cancel() {
	if !k.cancelled.CompareAndSwap(false, true) {
		return
	}
	k.sel.cancelledKeys.add(k)
}

// IsValid reports whether the key has not been cancelled and its selector
// is still open. There is no ordering guarantee against a concurrent
// Cancel: a true result may turn false at any moment.
func (k *Key) IsValid() bool {
	return !k.cancelled.Load() && !k.sel.closed.Load()
}
