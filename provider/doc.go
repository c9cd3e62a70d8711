// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package provider supplies OS-level readiness backends for the selector.
// Linux gets an epoll(7) implementation with an eventfd wakeup channel;
// other platforms get a stub that fails at construction.
package provider
