// File: api/ops.go
// Package api defines the operation bitset shared by interest and ready sets.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Ops is a bitset of I/O operations an endpoint can be interested in or
// ready for.
type Ops uint32

// Operation bits.
const (
	OpRead Ops = 1 << iota
	OpWrite
	OpAccept
	OpConnect
)

// Has reports whether every bit of op is set in o.
func (o Ops) Has(op Ops) bool { return o&op == op }

// String returns a pipe-separated representation of the set bits.
func (o Ops) String() (str string) {
	name := func(op Ops, s string) {
		if o&op == 0 {
			return
		}
		if str != "" {
			str += "|"
		}
		str += s
	}
	name(OpRead, "READ")
	name(OpWrite, "WRITE")
	name(OpAccept, "ACCEPT")
	name(OpConnect, "CONNECT")
	if str == "" {
		str = "NONE"
	}
	return
}
