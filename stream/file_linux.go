//go:build linux
// +build linux

// File: stream/file_linux.go
// Author: momentics <momentics@gmail.com>
//
// Nonblocking fd reader with scatter-read support. Delegates everything
// to the OS primitive: no buffering, no path handling.

package stream

import (
	"io"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mux/api"
)

// ErrWouldBlock is returned by reads when the descriptor has no data and
// the caller should wait for readiness instead.
var ErrWouldBlock = errors.New("stream: operation would block")

// File reads a byte stream from an open file descriptor it takes
// ownership of. It implements api.FDEndpoint and api.Binder.
type File struct {
	mu     sync.Mutex
	fd     int
	regs   []api.Registration
	closed bool
}

var (
	_ api.FDEndpoint = (*File)(nil)
	_ api.Binder     = (*File)(nil)
)

// NewFile wraps fd, switching it to nonblocking mode. The File owns the
// descriptor from here on.
func NewFile(fd int) (*File, error) {
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, errors.Wrap(err, "stream: set nonblock")
	}
	return &File{fd: fd}, nil
}

// FD implements api.FDEndpoint.
func (f *File) FD() uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uintptr(f.fd)
}

// QueryReady reports current readiness via a zero-timeout poll(2). Used
// by non-fd providers; the epoll provider watches the descriptor itself.
func (f *File) QueryReady(interest api.Ops) (api.Ops, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.WithStack(unix.EBADF)
	}
	var events int16
	if interest&api.OpRead != 0 {
		events |= unix.POLLIN
	}
	if interest&api.OpWrite != 0 {
		events |= unix.POLLOUT
	}
	fds := []unix.PollFd{{Fd: int32(f.fd), Events: events}}
	for {
		if _, err := unix.Poll(fds, 0); err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, errors.Wrap(err, "stream: poll")
		}
		break
	}
	var ops api.Ops
	revents := fds[0].Revents
	if revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
		ops |= interest & api.OpRead
	}
	if revents&(unix.POLLOUT|unix.POLLERR) != 0 {
		ops |= interest & api.OpWrite
	}
	return ops, nil
}

// Read reads up to len(p) bytes. Returns io.EOF at end of stream and
// ErrWouldBlock when no data is available yet.
func (f *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := unix.Read(f.fd, p)
	return readResult(n, err)
}

// ReadScatter reads a single contiguous chunk of the stream into bufs in
// order, filling each buffer before touching the next. Returns the total
// byte count, io.EOF at end of stream, ErrWouldBlock when nothing is
// available.
func (f *File) ReadScatter(bufs [][]byte) (int64, error) {
	if len(bufs) == 0 {
		return 0, nil
	}
	n, err := unix.Readv(f.fd, bufs)
	total, rerr := readResult(n, err)
	return int64(total), rerr
}

func readResult(n int, err error) (int, error) {
	switch {
	case err == unix.EAGAIN:
		return 0, ErrWouldBlock
	case err != nil:
		return 0, errors.Wrap(err, "stream: read")
	case n == 0:
		return 0, io.EOF
	default:
		return n, nil
	}
}

// Available reports how many bytes can be read without blocking.
func (f *File) Available() (int, error) {
	n, err := unix.IoctlGetInt(f.fd, unix.TIOCINQ)
	return n, errors.Wrap(err, "stream: fionread")
}

// Skip discards up to n bytes and returns how many were dropped. Seekable
// descriptors seek past the bytes; pipes fall back to reading and
// discarding, stopping early when the stream would block.
func (f *File) Skip(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if _, err := unix.Seek(f.fd, n, unix.SEEK_CUR); err == nil {
		return n, nil
	} else if err != unix.ESPIPE {
		return 0, errors.Wrap(err, "stream: seek")
	}

	var skipped int64
	buf := make([]byte, 4096)
	for skipped < n {
		chunk := buf
		if rest := n - skipped; rest < int64(len(buf)) {
			chunk = buf[:rest]
		}
		m, err := f.Read(chunk)
		skipped += int64(m)
		if err == ErrWouldBlock || err == io.EOF {
			break
		}
		if err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// Deregister implements api.Endpoint. The selector detaches the
// descriptor from the provider on its own; nothing to undo here.
func (f *File) Deregister() error { return nil }

// Bind implements api.Binder.
func (f *File) Bind(reg api.Registration) {
	f.mu.Lock()
	f.regs = append(f.regs, reg)
	f.mu.Unlock()
}

// Unbind implements api.Binder.
func (f *File) Unbind(reg api.Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.regs {
		if r == reg {
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return
		}
	}
}

// Close cancels every bound registration and closes the descriptor.
// Idempotent.
func (f *File) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	regs := append([]api.Registration(nil), f.regs...)
	fd := f.fd
	f.mu.Unlock()

	for _, r := range regs {
		r.Cancel()
	}
	return errors.Wrap(unix.Close(fd), "stream: close")
}
