//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// selector_linux_test.go — end-to-end selection over real pipes with the
// epoll provider and the fd stream endpoint.

package mux_test

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mux/api"
	"github.com/momentics/hioload-mux/mux"
	"github.com/momentics/hioload-mux/provider"
	"github.com/momentics/hioload-mux/stream"
)

func TestEpollSelector_PipeRoundTrip(t *testing.T) {
	p, err := provider.NewEpoll()
	if err != nil {
		t.Fatalf("NewEpoll failed: %v", err)
	}
	s, err := mux.Open(p)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	t.Cleanup(func() { unix.Close(fds[1]) })
	f, err := stream.NewFile(fds[0])
	if err != nil {
		t.Fatalf("NewFile failed: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	k, err := s.Register(f, api.OpRead)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		unix.Write(fds[1], []byte("ping"))
	}()

	n, err := s.Select(2 * time.Second)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Select = %d, want 1", n)
	}
	if !k.Ready().Has(api.OpRead) {
		t.Fatalf("ready = %v, want READ", k.Ready())
	}

	buf := make([]byte, 8)
	m, err := f.Read(buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf[:m]) != "ping" {
		t.Errorf("read %q, want %q", buf[:m], "ping")
	}

	// Closing the stream cancels its key; the next cycle purges it.
	s.Ready().Clear()
	if err := f.Close(); err != nil {
		t.Fatalf("stream close failed: %v", err)
	}
	if k.IsValid() {
		t.Error("key must be invalid after the endpoint closes")
	}
	if _, err := s.SelectNow(); err != nil {
		t.Fatalf("SelectNow failed: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Error("closed endpoint's key must be purged")
	}
}
