// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"io"
	"log"
)

// Logger is the diagnostic channel used for warnings that are not errors
// in their own right: a PLL solution missing the target rate by more than
// 1 Hz, a palette entry failing read-back verification, the notice that
// detaching a kernel driver may be slow, and (in package stream) producer
// underflows. Satisfied by *log.Logger so callers can pass one in directly.
type Logger interface {
	Printf(format string, args ...any)
}

// discardLogger is the default Logger when none is configured.
var discardLogger Logger = log.New(io.Discard, "", 0)

// DiscardLogger returns the no-op Logger used by default, for callers
// outside this package (such as package stream) that need a non-nil
// default without constructing their own.
func DiscardLogger() Logger {
	return discardLogger
}
