// File: mux/cancelled.go
// Author: momentics <momentics@gmail.com>
//
// Cancelled set: keys awaiting removal by the next purge step. Internal to
// the selector, always a subset of the key set.

package mux

import "sync"

type cancelledSet struct {
	mu   sync.Mutex
	keys map[*Key]struct{}
}

func newCancelledSet() *cancelledSet {
	return &cancelledSet{keys: make(map[*Key]struct{})}
}

func (cs *cancelledSet) add(k *Key) {
	cs.mu.Lock()
	cs.keys[k] = struct{}{}
	cs.mu.Unlock()
}

// drainLocked empties the set and returns the victims. Requires cs.mu held.
func (cs *cancelledSet) drainLocked() []*Key {
	if len(cs.keys) == 0 {
		return nil
	}
	victims := make([]*Key, 0, len(cs.keys))
	for k := range cs.keys {
		victims = append(victims, k)
	}
	cs.keys = make(map[*Key]struct{})
	return victims
}
