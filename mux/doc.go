// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package mux implements the readiness-based selection primitive: callers
// register endpoints to obtain keys, block until some are ready, and consume
// the ready set.
//
// A selection cycle is a purge, poll, re-purge sequence. The purge steps
// remove keys cancelled since the previous cycle; the poll asks the injected
// provider for readiness of every registered key's interest snapshot, taken
// at cycle start. Only one cycle runs at a time per selector; concurrent
// selection calls serialize on the cycle, never on an error.
//
// Lock order everywhere, close included: cycle lock, then ready-set lock,
// then cancelled-set lock.
package mux
