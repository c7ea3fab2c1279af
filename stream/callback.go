// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stream implements the double-buffered streaming engine built
// on top of package device: a pool of reusable transfer buffers fed by
// a caller-supplied producer and drained to the FL2000's bulk OUT
// endpoint in strict sequence order.
package stream

// FillRequest is passed to a ProducerFunc on every invocation. Unlike
// a C callback there is no context pointer argument; callers close
// over whatever state they need instead.
type FillRequest struct {
	// Underflows is the cumulative underflow count as of this call.
	Underflows uint64
	// SignedSamples reports the signed argument given to Engine.Start:
	// when true, the engine adds 128 to every sample while permuting it
	// into wire format, converting two's complement input into the
	// DAC's unsigned space.
	SignedSamples bool
	// DeviceError is set only on the final synthesized callback after
	// the device is lost, so a blocked producer can unwind.
	DeviceError bool
}

// ProducerFunc supplies one buffer's worth of samples per enabled
// channel. In MultiChan mode it is called once per transfer and all
// three slices are used; in SingleChan mode it is called three times
// per transfer and only r is used from each call (g and b are ignored),
// so each call still supplies L bytes despite driving only one DAC. The
// returned slices
// are read synchronously during the call and must not be retained
// across it.
type ProducerFunc func(req FillRequest) (r, g, b []byte)
