// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package stream provides a nonblocking byte-stream reader over an open
// file descriptor. A File is an api.FDEndpoint, so it registers directly
// with a selector, and closing it cancels any registrations bound to it.
// Scatter reads spread one read across several buffers in order.
package stream
