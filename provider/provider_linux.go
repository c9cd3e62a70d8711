//go:build linux
// +build linux

// File: provider/provider_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7)-based readiness provider. The epoll interest list is
// reconciled against the entry snapshot at the start of every poll, so the
// provider itself holds no registration protocol: descriptors appear,
// change interest, and vanish purely by what the selector passes in. An
// eventfd registered alongside the real descriptors carries wakeups; its
// counter semantics coalesce consecutive wakeups for free.

package provider

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mux/api"
)

const maxEvents = 128

type watch struct {
	reg      api.Registration
	interest api.Ops
}

// Epoll is an api.Provider over a single epoll instance. Only endpoints
// implementing api.FDEndpoint are pollable; entries for other endpoints
// are ignored.
type Epoll struct {
	mu      sync.Mutex
	epfd    int
	wakefd  int
	watches map[int32]watch // fds currently in the epoll interest list
	closed  bool
}

// NewOS returns the platform readiness provider, epoll on Linux.
func NewOS() (api.Provider, error) {
	return NewEpoll()
}

// NewEpoll creates an epoll provider with its wakeup eventfd installed.
func NewEpoll() (*Epoll, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll create")
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, errors.Wrap(err, "eventfd")
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, errors.Wrap(err, "epoll ctl add wakeup")
	}
	return &Epoll{
		epfd:    epfd,
		wakefd:  wakefd,
		watches: make(map[int32]watch),
	}, nil
}

// PollOnce reconciles the epoll interest list with entries, then waits for
// events up to timeout (negative blocks, zero returns immediately).
func (p *Epoll) PollOnce(entries []api.PollEntry, timeout time.Duration) ([]api.ReadyEvent, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, api.ErrProviderClosed
	}
	if err := p.reconcile(entries); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	epfd := p.epfd
	p.mu.Unlock()

	var events [maxEvents]unix.EpollEvent
	ms := timeoutMillis(timeout)
	var n int
	for {
		var err error
		n, err = unix.EpollWait(epfd, events[:], ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "epoll wait")
		}
		break
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]api.ReadyEvent, 0, n)
	for i := 0; i < n; i++ {
		ev := events[i]
		if int(ev.Fd) == p.wakefd {
			p.drainWakeup()
			continue
		}
		w, ok := p.watches[ev.Fd]
		if !ok {
			continue
		}
		ops := epollToOps(ev.Events, w.interest)
		if ops == 0 {
			continue
		}
		out = append(out, api.ReadyEvent{Reg: w.reg, Ready: ops})
	}
	return out, nil
}

// Wakeup bumps the eventfd counter, forcing the in-flight or next wait to
// return. The counter accumulates, so repeated wakeups coalesce.
func (p *Epoll) Wakeup() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	if err == unix.EAGAIN || err == unix.EBADF {
		// Counter saturated or already closed; either way the wakeup is
		// moot.
		return nil
	}
	return errors.Wrap(err, "eventfd write")
}

// Close releases the epoll instance and the wakeup eventfd. The
// descriptors watched on behalf of the selector stay open: the provider
// never owns them.
func (p *Epoll) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.watches = nil
	err := unix.Close(p.wakefd)
	if cerr := unix.Close(p.epfd); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "epoll close")
}

// reconcile diffs the desired entry snapshot against the current epoll
// interest list, issuing the minimal set of ctl add/mod/del calls.
// Requires p.mu held.
func (p *Epoll) reconcile(entries []api.PollEntry) error {
	desired := make(map[int32]watch, len(entries))
	for _, e := range entries {
		fde, ok := e.Reg.Endpoint().(api.FDEndpoint)
		if !ok {
			continue
		}
		desired[int32(fde.FD())] = watch{reg: e.Reg, interest: e.Interest}
	}

	for fd, w := range p.watches {
		want, ok := desired[fd]
		if !ok {
			if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil); err != nil && err != unix.EBADF && err != unix.ENOENT {
				return errors.Wrap(err, "epoll ctl del")
			}
			delete(p.watches, fd)
			continue
		}
		if want.interest != w.interest {
			ev := unix.EpollEvent{Events: opsToEpoll(want.interest), Fd: fd}
			if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), &ev); err != nil {
				return errors.Wrap(err, "epoll ctl mod")
			}
		}
		p.watches[fd] = want
	}
	for fd, w := range desired {
		if _, ok := p.watches[fd]; ok {
			continue
		}
		ev := unix.EpollEvent{Events: opsToEpoll(w.interest), Fd: fd}
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
			return errors.Wrap(err, "epoll ctl add")
		}
		p.watches[fd] = w
	}
	return nil
}

func (p *Epoll) drainWakeup() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// timeoutMillis maps the provider timeout convention onto epoll_wait:
// negative blocks, zero is immediate, positive is rounded up so a short
// wait never busy-spins as zero.
func timeoutMillis(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d == 0:
		return 0
	default:
		ms := int(d.Milliseconds())
		if ms == 0 {
			ms = 1
		}
		return ms
	}
}

func opsToEpoll(ops api.Ops) uint32 {
	var events uint32
	if ops&(api.OpRead|api.OpAccept) != 0 {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if ops&(api.OpWrite|api.OpConnect) != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// epollToOps translates raw epoll bits back into the interest-scoped op
// set. Error and hangup conditions mark every interest bit ready so the
// caller observes the failure on its next I/O attempt.
func epollToOps(events uint32, interest api.Ops) api.Ops {
	var ops api.Ops
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0 {
		ops |= interest & (api.OpRead | api.OpAccept)
	}
	if events&unix.EPOLLOUT != 0 {
		ops |= interest & (api.OpWrite | api.OpConnect)
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		ops |= interest
	}
	return ops
}
