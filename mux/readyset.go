// File: mux/readyset.go
// Author: momentics <momentics@gmail.com>
//
// Ready set: the subset of registered keys whose readiness was updated by
// the most recent selection cycle. Consumers may remove keys or clear the
// set; only a selection cycle inserts.

package mux

import "sync"

// ReadySet holds the keys selected by the latest cycle. It is always a
// subset of the selector's key set. Mutation from multiple consumer
// goroutines needs external synchronization beyond what the selector does
// internally during a cycle.
type ReadySet struct {
	mu   sync.Mutex
	keys map[*Key]struct{}
}

func newReadySet() *ReadySet {
	return &ReadySet{keys: make(map[*Key]struct{})}
}

// Contains reports whether k is currently selected.
func (rs *ReadySet) Contains(k *Key) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	_, ok := rs.keys[k]
	return ok
}

// Remove takes k out of the set. The key's last-observed ready operations
// stay readable through Key.Ready.
func (rs *ReadySet) Remove(k *Key) {
	rs.mu.Lock()
	delete(rs.keys, k)
	rs.mu.Unlock()
}

// Clear empties the set.
func (rs *ReadySet) Clear() {
	rs.mu.Lock()
	rs.keys = make(map[*Key]struct{})
	rs.mu.Unlock()
}

// Len returns the number of selected keys.
func (rs *ReadySet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.keys)
}

// Keys returns a snapshot of the selected keys.
func (rs *ReadySet) Keys() []*Key {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	keys := make([]*Key, 0, len(rs.keys))
	for k := range rs.keys {
		keys = append(keys, k)
	}
	return keys
}

// insertLocked and removeLocked require rs.mu held by the selector.

func (rs *ReadySet) insertLocked(k *Key)       { rs.keys[k] = struct{}{} }
func (rs *ReadySet) removeLocked(k *Key)       { delete(rs.keys, k) }
func (rs *ReadySet) containsLocked(k *Key) bool { _, ok := rs.keys[k]; return ok }
