// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !windows

package stream

import "golang.org/x/sys/unix"

// allocSampleBuffer tries an anonymous mmap as a stand-in for the
// kernel's usbfs zero-copy allocation path, then probes it for a known
// class of kernel bug where the pages come back uninitialized: read
// the first byte and compare every other byte against it. A uniform
// page is trusted; anything else is unmapped and replaced with an
// ordinary heap buffer.
func allocSampleBuffer(n int) []byte {
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return make([]byte, n)
	}
	if !uniformFill(buf) {
		_ = unix.Munmap(buf)
		return make([]byte, n)
	}
	return buf
}

func uniformFill(buf []byte) bool {
	if len(buf) == 0 {
		return true
	}
	first := buf[0]
	for _, b := range buf[1:] {
		if b != first {
			return false
		}
	}
	return true
}
