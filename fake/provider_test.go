// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// provider_test.go — scripted provider contract: batch order, error
// injection, wakeup coalescing, timed wait.

package fake_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/fake"
)

type reg struct{ ep api.Endpoint }

func (r *reg) Endpoint() api.Endpoint { return r.ep }
func (r *reg) Cancel()                {}
func (r *reg) IsValid() bool          { return true }

func TestProvider_ScriptedBatchesInOrder(t *testing.T) {
	p := fake.NewProvider(nil)
	r := &reg{ep: fake.NewEndpoint("a")}
	p.Enqueue(api.ReadyEvent{Reg: r, Ready: api.OpRead})
	p.Enqueue(api.ReadyEvent{Reg: r, Ready: api.OpWrite})

	first, err := p.PollOnce(nil, 0)
	if err != nil || len(first) != 1 || first[0].Ready != api.OpRead {
		t.Fatalf("first poll = (%v, %v), want READ batch", first, err)
	}
	second, err := p.PollOnce(nil, 0)
	if err != nil || len(second) != 1 || second[0].Ready != api.OpWrite {
		t.Fatalf("second poll = (%v, %v), want WRITE batch", second, err)
	}
}

func TestProvider_ErrorBeforeBatch(t *testing.T) {
	p := fake.NewProvider(nil)
	boom := errors.New("boom")
	p.FailNext(boom)
	p.Enqueue()

	if _, err := p.PollOnce(nil, 0); !errors.Is(err, boom) {
		t.Fatalf("poll = %v, want scripted error", err)
	}
	if _, err := p.PollOnce(nil, 0); err != nil {
		t.Fatalf("batch after error failed: %v", err)
	}
}

func TestProvider_WakeupCoalescesAtChannel(t *testing.T) {
	p := fake.NewProvider(nil)
	for i := 0; i < 5; i++ {
		if err := p.Wakeup(); err != nil {
			t.Fatalf("wakeup failed: %v", err)
		}
	}
	start := time.Now()
	if _, err := p.PollOnce(nil, -1); err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("pending wakeup not consumed")
	}

	done := make(chan struct{})
	go func() {
		_, _ = p.PollOnce(nil, -1)
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("second indefinite poll must block")
	case <-time.After(50 * time.Millisecond):
	}
	_ = p.Wakeup()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll did not wake")
	}
}

func TestProvider_TimedWaitElapses(t *testing.T) {
	p := fake.NewProvider(nil)
	start := time.Now()
	events, err := p.PollOnce(nil, 30*time.Millisecond)
	if err != nil || len(events) != 0 {
		t.Fatalf("poll = (%v, %v), want empty", events, err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("timed wait returned too early")
	}
}

func TestProvider_QueryModeMasksInterest(t *testing.T) {
	p := fake.NewProvider(nil)
	p.QueryEndpoints = true
	ep := fake.NewEndpoint("a")
	ep.SetReady(api.OpRead | api.OpWrite)
	r := &reg{ep: ep}

	events, err := p.PollOnce([]api.PollEntry{{Reg: r, Interest: api.OpWrite}}, 0)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if len(events) != 1 || events[0].Ready != api.OpWrite {
		t.Fatalf("events = %v, want interest-masked WRITE", events)
	}
}

func TestProvider_ClosedPollFails(t *testing.T) {
	p := fake.NewProvider(nil)
	_ = p.Close()
	if _, err := p.PollOnce(nil, 0); !errors.Is(err, api.ErrProviderClosed) {
		t.Fatalf("poll after close = %v, want ErrProviderClosed", err)
	}
}
