// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

//go:generate go run golang.org/x/tools/cmd/stringer -type ErrT -output errors_string.go

// ErrT is the error taxonomy returned synchronously by control-plane
// calls, a single enum-like type rather than a sentinel error per
// call site.
type ErrT int32

const (
	// InvalidParam indicates a null or out-of-range argument.
	InvalidParam ErrT = iota + 1
	// NoMem indicates a memory or buffer allocation failure.
	NoMem
	// Busy indicates the engine was not in the state required for the
	// requested transition (e.g. start_tx while already RUNNING).
	Busy
	// Timeout indicates an I2C poll exhausted its retry budget.
	Timeout
	// NotFound indicates an I2C slave NACK.
	NotFound
	// Other is any unclassified USB or transport failure.
	Other
	// ShortRead indicates a register read control transfer returned
	// fewer than 4 payload bytes.
	ShortRead
	// IO indicates a register write control transfer did not complete
	// in full.
	IO
)

func (e ErrT) Error() string {
	switch e {
	case InvalidParam:
		return "invalid parameter"
	case NoMem:
		return "allocation failed"
	case Busy:
		return "device busy"
	case Timeout:
		return "operation timed out"
	case NotFound:
		return "not found"
	case ShortRead:
		return "short read"
	case IO:
		return "i/o error"
	case Other:
		return "other error"
	default:
		return "unknown error"
	}
}
