// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Recording endpoint for tests: scriptable readiness, deregistration
// counting, and registration tracking so Close cancels bound keys the way
// a real endpoint would.

package fake

import (
	"sync"

	"github.com/momentics/hioload-mux/api"
)

// Endpoint is a test api.Endpoint implementing the Binder capability.
type Endpoint struct {
	mu            sync.Mutex
	name          string
	ready         api.Ops
	queried       []api.Ops
	deregistered  int
	deregisterErr error
	regs          []api.Registration
	closed        bool
}

var (
	_ api.Endpoint = (*Endpoint)(nil)
	_ api.Binder   = (*Endpoint)(nil)
)

// NewEndpoint creates a named endpoint with nothing ready.
func NewEndpoint(name string) *Endpoint {
	return &Endpoint{name: name}
}

// Name returns the endpoint's test label.
func (e *Endpoint) Name() string { return e.name }

// SetReady scripts what QueryReady reports.
func (e *Endpoint) SetReady(ops api.Ops) {
	e.mu.Lock()
	e.ready = ops
	e.mu.Unlock()
}

// FailDeregister scripts Deregister to return err.
func (e *Endpoint) FailDeregister(err error) {
	e.mu.Lock()
	e.deregisterErr = err
	e.mu.Unlock()
}

// QueryReady implements api.Endpoint, recording every query.
func (e *Endpoint) QueryReady(interest api.Ops) (api.Ops, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queried = append(e.queried, interest)
	return e.ready & interest, nil
}

// Queried returns the interest sets passed to QueryReady, in order.
func (e *Endpoint) Queried() []api.Ops {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]api.Ops(nil), e.queried...)
}

// Deregister implements api.Endpoint.
func (e *Endpoint) Deregister() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deregistered++
	return e.deregisterErr
}

// Deregistered returns how many times Deregister ran.
func (e *Endpoint) Deregistered() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deregistered
}

// Bind implements api.Binder.
func (e *Endpoint) Bind(reg api.Registration) {
	e.mu.Lock()
	e.regs = append(e.regs, reg)
	e.mu.Unlock()
}

// Unbind implements api.Binder.
func (e *Endpoint) Unbind(reg api.Registration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.regs {
		if r == reg {
			e.regs = append(e.regs[:i], e.regs[i+1:]...)
			return
		}
	}
}

// Bound returns the registrations currently bound.
func (e *Endpoint) Bound() []api.Registration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]api.Registration(nil), e.regs...)
}

// Close cancels every bound registration, as closing a real endpoint
// implicitly cancels its keys. Idempotent.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	regs := append([]api.Registration(nil), e.regs...)
	e.mu.Unlock()
	for _, r := range regs {
		r.Cancel()
	}
	return nil
}
