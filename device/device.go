// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"sync"
)

// Mode selects between the two DAC drive schemes the palette logic supports.
type Mode int

const (
	// MultiChan drives R, G, and B as three independent sample
	// channels straight out of the video DACs.
	MultiChan Mode = iota
	// SingleChan drives a single sample channel through the 256-entry
	// palette RAM, bypassing two of the three DACs.
	SingleChan
)

func (m Mode) String() string {
	if m == SingleChan {
		return "single-channel"
	}
	return "multi-channel"
}

// Channel is one of the three DAC outputs, used as a bit in a channel
// mask for SetEnabledChannels.
type Channel uint8

const (
	ChannelR Channel = 1 << iota
	ChannelG
	ChannelB
	ChannelAll = ChannelR | ChannelG | ChannelB
)

// Device owns the USB transport, the current configuration, and the
// mutable fields the streaming engine touches across threads. Fields
// set before streaming begins (mode, rate, channel mask) are not
// mutated while streaming runs; Device itself does not implement the
// streaming engine, see package stream.
type Device struct {
	transport Transport
	log       Logger

	mu        sync.Mutex
	mode      Mode
	mask      Channel
	sampleHz  float64
	streaming bool
}

// New opens the n-th (0-indexed) FL2000 adapter found on the bus,
// applies the init register sequence, and returns a ready-to-configure
// Device. ConfigFns are applied, in order, before the hardware is
// touched so a Logger and a fake Transport (for tests) can be injected.
func New(ctx context.Context, index int, fns ...ConfigFn) (*Device, error) {
	d := &Device{
		log:      discardLogger,
		mode:     MultiChan,
		mask:     ChannelAll,
		sampleHz: defaultSampleHz,
	}
	for _, fn := range fns {
		if err := fn(d); err != nil {
			return nil, err
		}
	}

	if d.transport == nil {
		t, err := openGousbTransport(index, d.log)
		if err != nil {
			return nil, err
		}
		d.transport = t
	}

	if err := d.initSequence(ctx); err != nil {
		d.transport.Close()
		return nil, err
	}

	if err := d.SetSampleRate(ctx, d.sampleHz); err != nil {
		d.transport.Close()
		return nil, err
	}

	// The init sequence leaves the hardware in MultiChan; switch it to
	// the configured mode so Mode() and the mode-control register agree.
	if m := d.mode; m != MultiChan {
		d.mode = MultiChan
		if err := d.SetMode(ctx, m); err != nil {
			d.transport.Close()
			return nil, err
		}
	}

	return d, nil
}

// Enumerate counts the attached devices whose VID/PID appears in the
// built-in table.
func Enumerate() (int, error) {
	return countDevices()
}

// Close releases the interface and disposes of the USB context. The
// caller is expected to have already stopped streaming (see
// stream.Engine.Stop); Close itself does not block waiting for a
// streaming engine to go inactive.
func (d *Device) Close() error {
	return d.transport.Close()
}

// Transport returns the device's transport for use by package stream,
// which needs it to perform bulk OUT writes.
func (d *Device) Transport() Transport {
	return d.transport
}

// Mode returns the currently configured drive mode.
func (d *Device) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// SampleRate returns the device's effective sample rate in Hz, as
// stored by the most recent successful SetSampleRate.
func (d *Device) SampleRate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleHz
}

// EnabledChannels returns the currently configured channel mask.
func (d *Device) EnabledChannels() Channel {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mask
}

// BeginStreaming is called by package stream's Engine when a transmit
// session starts. It records that streaming is active so SetMode can
// reject a mode switch while transmitting. Returns Busy if streaming
// is already active.
func (d *Device) BeginStreaming() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streaming {
		return Busy
	}
	d.streaming = true
	return nil
}

// EndStreaming is called by package stream's Engine once the drain
// completes and the engine reaches INACTIVE.
func (d *Device) EndStreaming() {
	d.mu.Lock()
	d.streaming = false
	d.mu.Unlock()
}

// Streaming reports whether the device is currently in a streaming
// session, for diagnostics and for SetEnabledChannels's caller to
// judge whether a channel-mask change will race the streaming engine.
func (d *Device) Streaming() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streaming
}
