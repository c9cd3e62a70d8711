// File: mux/options.go
// Package mux defines functional options for the Selector.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mux

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/momentics/hioload-mux/control"
)

// Option customizes selector initialization.
type Option func(*Selector)

// WithLogger attaches a structured logger. Default is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Selector) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the wall clock used for deadline arithmetic and
// cycle timing. Meant for tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Selector) {
		if clk != nil {
			s.clock = clk
		}
	}
}

// WithMetrics attaches prometheus telemetry. Default is none.
func WithMetrics(m *control.Metrics) Option {
	return func(s *Selector) {
		s.metrics = m
	}
}
