// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// key_test.go — registration key lifecycle: validity, interest mutation,
// ready set before first selection.

package mux_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/fake"
)

func TestKey_FreshKeyState(t *testing.T) {
	s, _ := newSelector(t)
	ep := fake.NewEndpoint("a")
	k := mustRegister(t, s, ep, api.OpRead)

	if !k.IsValid() {
		t.Error("fresh key must be valid")
	}
	if k.Endpoint() != ep {
		t.Error("key must reference its endpoint")
	}
	if k.Selector() != s {
		t.Error("key must reference its selector")
	}
	if k.Ready() != 0 {
		t.Error("never-selected key must report an empty ready set")
	}
	if got := k.Interest(); got != api.OpRead {
		t.Errorf("interest = %v, want READ", got)
	}
}

func TestKey_SetInterestOnCancelledKey(t *testing.T) {
	s, _ := newSelector(t)
	k := mustRegister(t, s, fake.NewEndpoint("a"), api.OpRead)
	k.Cancel()

	if err := k.SetInterest(api.OpWrite); !errors.Is(err, api.ErrKeyCancelled) {
		t.Errorf("SetInterest on cancelled key = %v, want ErrKeyCancelled", err)
	}
}

func TestKey_RegistrationBinding(t *testing.T) {
	s, _ := newSelector(t)
	ep := fake.NewEndpoint("a")
	k := mustRegister(t, s, ep, api.OpRead)

	bound := ep.Bound()
	if len(bound) != 1 || bound[0] != api.Registration(k) {
		t.Fatalf("endpoint bound to %v, want its key", bound)
	}

	k.Cancel()
	if _, err := s.SelectNow(); err != nil {
		t.Fatalf("SelectNow failed: %v", err)
	}
	if len(ep.Bound()) != 0 {
		t.Error("purge must unbind the registration")
	}
}
