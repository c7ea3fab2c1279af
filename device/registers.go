// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import "context"

// Register addresses used outside of the PLL/palette/I2C-specific
// files. The palette, mode, and I2C registers are documented next to
// the code that uses them.
const (
	regPLL = 0x802c
)

// ReadRegister performs a register read against the device's
// transport.
func (d *Device) ReadRegister(ctx context.Context, reg uint16) (uint32, error) {
	return readRegister(ctx, d.transport, reg)
}

// WriteRegister performs a register write against the device's
// transport.
func (d *Device) WriteRegister(ctx context.Context, reg uint16, val uint32) error {
	return writeRegister(ctx, d.transport, reg, val)
}
