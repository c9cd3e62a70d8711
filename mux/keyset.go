// File: mux/keyset.go
// Author: momentics <momentics@gmail.com>
//
// Key set: the selector's registry of active keys, one per endpoint.
// Backed by sync.Map so registration, lookup, and purge removal are safe
// from any number of goroutines, and iteration yields a snapshot view that
// never fails on concurrent modification.

package mux

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-mux/api"
)

type keySet struct {
	m    sync.Map // api.Endpoint -> *Key
	size atomic.Int64
}

// loadOrStore returns the existing key for ep, or stores k and reports it
// as newly inserted.
func (ks *keySet) loadOrStore(ep api.Endpoint, k *Key) (*Key, bool) {
	actual, loaded := ks.m.LoadOrStore(ep, k)
	if !loaded {
		ks.size.Add(1)
	}
	return actual.(*Key), loaded
}

func (ks *keySet) delete(ep api.Endpoint) {
	if _, loaded := ks.m.LoadAndDelete(ep); loaded {
		ks.size.Add(-1)
	}
}

func (ks *keySet) len() int { return int(ks.size.Load()) }

// snapshot returns the keys present at some point during the call.
func (ks *keySet) snapshot() []*Key {
	keys := make([]*Key, 0, ks.len())
	ks.m.Range(func(_, v any) bool {
		keys = append(keys, v.(*Key))
		return true
	})
	return keys
}
