// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import "context"

// regModeCtrl carries the mode-control bits: bits 25/26 select palette
// lookup (SingleChan), and it also carries the DAC-enable and
// hsync/vsync suppression bits applied by the init sequence.
const (
	regModeCtrl = 0x8004

	bitDacEnableR = 1 << 0
	bitDacEnableG = 1 << 1
	bitDacEnableB = 1 << 2
	bitSyncHVOff  = 1 << 3 // suppress hsync/vsync emission
	bitPaletteOn  = 1 << 25
	bitPaletteOn2 = 1 << 26
)

// initRegister is one {address, value} pair from the fixed register
// list applied right after the device is opened.
type initRegister struct {
	addr uint16
	val  uint32
}

// initRegisters enables the three DACs, disables hsync/vsync emission,
// and parks the PLL at a safe low frequency before any streaming or
// caller configuration happens. Applied verbatim, in order.
var initRegisters = []initRegister{
	{regModeCtrl, bitDacEnableR | bitDacEnableG | bitDacEnableB | bitSyncHVOff},
	{regPLL, pllWord{div: 63, outDiv: 1, frac: 1, mult: 3}.encode()}, // safe low park frequency
}

// initSequence applies the fixed register list above.
func (d *Device) initSequence(ctx context.Context) error {
	for _, r := range initRegisters {
		if err := d.WriteRegister(ctx, r.addr, r.val); err != nil {
			return err
		}
	}
	return nil
}
