// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build windows

package stream

// allocSampleBuffer has no kernel zero-copy path available on this
// platform and always returns an ordinary heap buffer.
func allocSampleBuffer(n int) []byte {
	return make([]byte, n)
}
