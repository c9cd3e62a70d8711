// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api defines the contracts of the hioload-mux selection primitive:
// the operation bitset, the Endpoint and Provider collaborator interfaces,
// and the sentinel errors shared across backends.
package api
