// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Scripted readiness provider for tests: poll results are either queued
// batches or synthesized by querying the endpoints themselves.

package fake

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-mux/api"
)

// Provider is a test api.Provider. Every PollOnce first consumes a queued
// batch if one is scripted; otherwise, with QueryEndpoints set, it asks
// each entry's endpoint via QueryReady; otherwise it reports nothing,
// blocking out the timeout unless woken.
type Provider struct {
	mu      sync.Mutex
	script  *queue.Queue // of []api.ReadyEvent
	errs    *queue.Queue // of error, consumed before batches
	clk     clock.Clock
	wake    chan struct{}
	closed  bool
	polls   int
	last    []api.PollEntry
	wakeups int

	// QueryEndpoints switches the provider to endpoint-query mode when no
	// batch is scripted.
	QueryEndpoints bool
}

var _ api.Provider = (*Provider)(nil)

// NewProvider creates a scripted provider. A nil clk uses the real clock.
func NewProvider(clk clock.Clock) *Provider {
	if clk == nil {
		clk = clock.New()
	}
	return &Provider{
		script: queue.New(),
		errs:   queue.New(),
		clk:    clk,
		wake:   make(chan struct{}, 1),
	}
}

// Enqueue scripts the result of one future poll.
func (p *Provider) Enqueue(batch ...api.ReadyEvent) {
	p.mu.Lock()
	p.script.Add(batch)
	p.mu.Unlock()
}

// FailNext scripts an error for the next poll.
func (p *Provider) FailNext(err error) {
	p.mu.Lock()
	p.errs.Add(err)
	p.mu.Unlock()
}

// Polls returns how many PollOnce calls completed or started.
func (p *Provider) Polls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}

// LastEntries returns the entry snapshot of the most recent poll.
func (p *Provider) LastEntries() []api.PollEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Wakeups returns how many wakeups were delivered, coalesced ones included.
func (p *Provider) Wakeups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wakeups
}

// PollOnce implements api.Provider.
func (p *Provider) PollOnce(entries []api.PollEntry, timeout time.Duration) ([]api.ReadyEvent, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, api.ErrProviderClosed
	}
	p.polls++
	p.last = entries
	if p.errs.Length() > 0 {
		err := p.errs.Remove().(error)
		p.mu.Unlock()
		return nil, err
	}
	if p.script.Length() > 0 {
		batch := p.script.Remove().([]api.ReadyEvent)
		p.mu.Unlock()
		return batch, nil
	}
	queryMode := p.QueryEndpoints
	p.mu.Unlock()

	if queryMode {
		return p.queryAll(entries)
	}
	p.wait(timeout)
	return nil, nil
}

func (p *Provider) queryAll(entries []api.PollEntry) ([]api.ReadyEvent, error) {
	var out []api.ReadyEvent
	for _, e := range entries {
		ready, err := e.Reg.Endpoint().QueryReady(e.Interest)
		if err != nil {
			return nil, err
		}
		if ready == 0 {
			continue
		}
		out = append(out, api.ReadyEvent{Reg: e.Reg, Ready: ready})
	}
	return out, nil
}

// wait blocks out the timeout, returning early on wakeup. A pending
// wakeup posted before the wait starts is consumed immediately.
func (p *Provider) wait(timeout time.Duration) {
	if timeout == 0 {
		select {
		case <-p.wake:
		default:
		}
		return
	}
	if timeout < 0 {
		<-p.wake
		return
	}
	timer := p.clk.Timer(timeout)
	defer timer.Stop()
	select {
	case <-p.wake:
	case <-timer.C:
	}
}

// Wakeup implements api.Provider. The one-slot channel coalesces
// consecutive wakeups.
func (p *Provider) Wakeup() error {
	p.mu.Lock()
	p.wakeups++
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close implements api.Provider.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
