// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import "errors"

const defaultSampleHz = 100e6

// ConfigFn is implemented by a function that configures a Device being
// constructed by New, or returns a non-nil error if a problem with the
// configuration is detected.
type ConfigFn func(d *Device) error

// WithLogger configures the Device's diagnostic channel, used for PLL
// rate-error warnings, palette verification mismatches, and the
// interface-3 detach notice when opening real hardware.
func WithLogger(l Logger) ConfigFn {
	return func(d *Device) error {
		if l == nil {
			return errors.New("nil logger")
		}
		d.log = l
		return nil
	}
}

// WithSampleRate configures the sample rate New() applies immediately
// after the init sequence, via the PLL solver. hz must be positive;
// without this option New applies a rate of 100 MHz.
func WithSampleRate(hz float64) ConfigFn {
	return func(d *Device) error {
		if hz <= 0 {
			return InvalidParam
		}
		d.sampleHz = hz
		return nil
	}
}

// WithMode configures the initial drive mode.
func WithMode(m Mode) ConfigFn {
	return func(d *Device) error {
		d.mode = m
		return nil
	}
}

// WithChannelMask configures the initial enabled-channel mask reported
// by EnabledChannels. New does not load it into the palette; that is
// done only by SetEnabledChannels.
func WithChannelMask(mask Channel) ConfigFn {
	return func(d *Device) error {
		if mask == 0 || mask&^ChannelAll != 0 {
			return InvalidParam
		}
		d.mask = mask
		return nil
	}
}

// WithTransport injects a Transport directly instead of opening a real
// USB device, for testing.
func WithTransport(t Transport) ConfigFn {
	return func(d *Device) error {
		if t == nil {
			return errors.New("nil transport")
		}
		d.transport = t
		return nil
	}
}
