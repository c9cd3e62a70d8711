//go:build !linux
// +build !linux

// File: provider/provider_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub for platforms without an epoll-style readiness backend. Tests and
// portable callers use the scripted provider from the fake package
// instead.

package provider

import (
	"errors"

	"github.com/momentics/hioload-mux/api"
)

// NewOS returns an error on unsupported platforms.
func NewOS() (api.Provider, error) {
	return nil, errors.New("provider: this platform is not supported")
}
