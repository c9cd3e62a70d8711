// File: mux/selector.go
// Author: momentics <momentics@gmail.com>
//
// Selector: orchestrates the purge-poll-purge selection cycle over the
// key, ready, and cancelled sets, against an injected readiness provider.

package mux

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/control"
)

// pollIndefinite is the provider timeout meaning "block until ready or
// wakeup", per the epoll convention used by api.Provider.
const pollIndefinite = time.Duration(-1)

// Action is the per-key callback of the action-consuming selection
// variants. It may cancel keys, close endpoints, or close the selector
// itself. Invoking a selection entry point on the same selector from
// inside the action is unsupported; the behavior is implementation-defined
// and not part of the contract.
type Action func(*Key) error

// Selector multiplexes readiness over registered endpoints. All methods
// are safe for concurrent use; concurrent selection calls serialize on the
// cycle. The zero value is not usable, construct with Open.
type Selector struct {
	provider api.Provider
	log      *zap.Logger
	clock    clock.Clock
	metrics  *control.Metrics

	// cycleMu serializes selection cycles and close teardown. It is the
	// outermost lock; ready.mu and cancelledKeys.mu nest inside it.
	cycleMu sync.Mutex

	keys          keySet
	ready         *ReadySet
	cancelledKeys *cancelledSet

	closed atomic.Bool
}

// Open creates a selector over the given readiness provider.
func Open(p api.Provider, opts ...Option) (*Selector, error) {
	if p == nil {
		return nil, api.ErrNilProvider
	}
	s := &Selector{
		provider:      p,
		log:           zap.NewNop(),
		clock:         clock.New(),
		ready:         newReadySet(),
		cancelledKeys: newCancelledSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register binds ep to the selector with the given interest set and
// returns its key. Registering an endpoint that already holds a live key
// replaces that key's interest set and returns the existing key;
// registering one whose key is cancelled but not yet purged fails with
// ErrKeyCancelled.
func (s *Selector) Register(ep api.Endpoint, interest api.Ops) (*Key, error) {
	if ep == nil {
		return nil, api.ErrNilEndpoint
	}
	if s.closed.Load() {
		return nil, api.ErrSelectorClosed
	}

	k := newKey(s, ep, interest)
	existing, loaded := s.keys.loadOrStore(ep, k)
	if loaded {
		if err := existing.SetInterest(interest); err != nil {
			return nil, err
		}
		return existing, nil
	}

	if b, ok := ep.(api.Binder); ok {
		b.Bind(k)
	}
	s.metrics.KeyRegistered()
	s.log.Debug("endpoint registered",
		zap.Stringer("interest", interest),
		zap.Int("keys", s.keys.len()))

	// Lost race with Close: the teardown snapshot may have missed k.
	if s.closed.Load() {
		s.keys.delete(ep)
		if b, ok := ep.(api.Binder); ok {
			b.Unbind(k)
		}
		s.metrics.KeysPurged(1)
		return nil, api.ErrSelectorClosed
	}
	return k, nil
}

// Keys returns a snapshot of the registered keys, consistent with some
// point in time during the call.
func (s *Selector) Keys() []*Key { return s.keys.snapshot() }

// Ready returns the ready set updated by selection cycles. Callers may
// remove keys from it or clear it, never insert.
func (s *Selector) Ready() *ReadySet { return s.ready }

// SelectNow runs one selection cycle without blocking and returns the
// number of keys whose ready state was updated, zero if nothing is ready.
func (s *Selector) SelectNow() (int, error) {
	return s.doSelect(0, nil)
}

// Select runs one selection cycle, blocking until an endpoint becomes
// ready, Wakeup is called, or timeout elapses. A zero timeout blocks
// indefinitely; a negative timeout fails fast with ErrNegativeTimeout
// before any state is touched. Timing is best effort.
//
// To tie the wait to a context, arrange a wakeup:
// stop := context.AfterFunc(ctx, sel.Wakeup); defer stop().
func (s *Selector) Select(timeout time.Duration) (int, error) {
	if timeout < 0 {
		return 0, api.ErrNegativeTimeout
	}
	return s.doSelect(blockingTimeout(timeout), nil)
}

// SelectWith is Select with per-key consumption: the ready set is cleared
// before polling, and every key selected by the poll is removed from the
// ready set again and handed to action exactly once. Returns the number of
// keys passed to action. An action error aborts the pass and is relayed
// unmodified; keys not yet visited stay in the ready set.
func (s *Selector) SelectWith(action Action, timeout time.Duration) (int, error) {
	if action == nil {
		return 0, api.ErrNilAction
	}
	if timeout < 0 {
		return 0, api.ErrNegativeTimeout
	}
	return s.doSelect(blockingTimeout(timeout), action)
}

// SelectNowWith is SelectNow with per-key consumption, see SelectWith.
func (s *Selector) SelectNowWith(action Action) (int, error) {
	if action == nil {
		return 0, api.ErrNilAction
	}
	return s.doSelect(0, action)
}

func blockingTimeout(timeout time.Duration) time.Duration {
	if timeout == 0 {
		return pollIndefinite
	}
	return timeout
}

// doSelect runs one selection cycle, then the consumption pass when an
// action is supplied. The pass runs outside the cycle lock so the action
// may legally close the selector or cancel keys.
func (s *Selector) doSelect(providerTimeout time.Duration, action Action) (int, error) {
	updated, err := s.runCycle(providerTimeout, action != nil)
	if err != nil {
		return 0, err
	}
	if action == nil {
		return updated, nil
	}
	visited, actionErr := s.consume(action)
	if actionErr != nil {
		return visited, actionErr
	}
	if s.closed.Load() {
		return visited, api.ErrSelectorClosed
	}
	return visited, nil
}

// runCycle executes one purge-poll-purge sequence under the cycle lock.
// providerTimeout follows the api.Provider convention: negative blocks,
// zero is immediate.
func (s *Selector) runCycle(providerTimeout time.Duration, clearReady bool) (int, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	if s.closed.Load() {
		return 0, api.ErrSelectorClosed
	}
	start := s.clock.Now()

	s.purge() // step 1

	if clearReady {
		s.ready.Clear()
	}

	entries := s.pollEntries()
	events, err := s.provider.PollOnce(entries, providerTimeout)
	if err != nil {
		s.metrics.ProviderError()
		s.log.Warn("provider poll failed", zap.Error(err))
		// Step 1 purges stay purged; nothing is rolled back.
		return 0, errors.Wrap(err, "mux: poll")
	}
	if s.closed.Load() {
		// Closed while blocked in the poll; Wakeup got us here.
		return 0, api.ErrSelectorClosed
	}

	updated := s.applyReady(events) // step 2
	s.purge()                       // step 3

	s.metrics.CycleDone(s.clock.Since(start))
	return updated, nil
}

// purge removes every cancelled key from the key and ready sets, then
// deregisters the victims' endpoints. Deregistration runs outside the set
// locks: an endpoint callback may cancel further keys.
func (s *Selector) purge() {
	s.ready.mu.Lock()
	s.cancelledKeys.mu.Lock()
	victims := s.cancelledKeys.drainLocked()
	for _, k := range victims {
		s.keys.delete(k.ep)
		s.ready.removeLocked(k)
	}
	s.cancelledKeys.mu.Unlock()
	s.ready.mu.Unlock()

	if len(victims) == 0 {
		return
	}
	for _, k := range victims {
		s.deregister(k)
	}
	s.metrics.KeysPurged(len(victims))
	s.log.Debug("purged cancelled keys", zap.Int("count", len(victims)))
}

func (s *Selector) deregister(k *Key) {
	if b, ok := k.ep.(api.Binder); ok {
		b.Unbind(k)
	}
	if err := k.ep.Deregister(); err != nil {
		s.log.Warn("endpoint deregister failed", zap.Error(err))
	}
}

// pollEntries snapshots every valid key's interest set. Keys with empty
// interest are skipped for the whole cycle.
func (s *Selector) pollEntries() []api.PollEntry {
	keys := s.keys.snapshot()
	entries := make([]api.PollEntry, 0, len(keys))
	for _, k := range keys {
		if !k.IsValid() {
			continue
		}
		interest := k.Interest()
		if interest == 0 {
			continue
		}
		entries = append(entries, api.PollEntry{Reg: k, Interest: interest})
	}
	return entries
}

// applyReady folds provider events into the ready set and returns the
// number of keys whose ready state gained bits this cycle. A key already
// selected accumulates by union; a newly selected key's ready set is
// replaced outright, discarding stale bits.
func (s *Selector) applyReady(events []api.ReadyEvent) int {
	updated := 0
	s.ready.mu.Lock()
	defer s.ready.mu.Unlock()
	for _, ev := range events {
		k, ok := ev.Reg.(*Key)
		if !ok || k.sel != s || k.cancelled.Load() {
			continue
		}
		ops := ev.Ready & k.Interest()
		if ops == 0 {
			continue
		}
		if s.ready.containsLocked(k) {
			old := k.Ready()
			k.setReady(old | ops)
			if ops&^old != 0 {
				updated++
			}
		} else {
			k.setReady(ops)
			s.ready.insertLocked(k)
			updated++
		}
	}
	return updated
}

// consume hands every selected key to the action, removing each from the
// ready set just before its visit. On error the pass stops: visited keys
// stay consumed, the rest stay selected.
func (s *Selector) consume(action Action) (int, error) {
	batch := s.ready.Keys()
	visited := 0
	for _, k := range batch {
		s.ready.Remove(k)
		visited++
		if err := action(k); err != nil {
			return visited, err
		}
	}
	return visited, nil
}

// Wakeup makes the blocked selection call, or the next one if none is
// blocked, return immediately. Consecutive wakeups with no intervening
// selection coalesce into one. Callable at any time, open or closed.
func (s *Selector) Wakeup() {
	if err := s.provider.Wakeup(); err != nil {
		s.log.Warn("provider wakeup failed", zap.Error(err))
		return
	}
	s.metrics.Wakeup()
}

// Close shuts the selector down: it interrupts a blocked selection the way
// Wakeup would, invalidates every key, deregisters every endpoint, and
// releases the provider. Idempotent; the second call returns nil without
// effect. After Close, every operation except Wakeup and Close fails with
// ErrSelectorClosed.
func (s *Selector) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	_ = s.provider.Wakeup()

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.ready.mu.Lock()
	s.cancelledKeys.mu.Lock()
	victims := s.keys.snapshot()
	for _, k := range victims {
		k.cancelled.Store(true)
		s.keys.delete(k.ep)
		s.ready.removeLocked(k)
	}
	s.cancelledKeys.drainLocked()
	s.cancelledKeys.mu.Unlock()
	s.ready.mu.Unlock()

	var err error
	for _, k := range victims {
		if b, ok := k.ep.(api.Binder); ok {
			b.Unbind(k)
		}
		if derr := k.ep.Deregister(); derr != nil {
			err = multierr.Append(err, errors.Wrap(derr, "mux: deregister on close"))
		}
	}
	s.metrics.KeysPurged(len(victims))
	err = multierr.Append(err, s.provider.Close())
	s.log.Info("selector closed", zap.Int("keys", len(victims)), zap.Error(err))
	return err
}
