// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"time"
)

// I2C bridge registers: a command register that preserves bits 18-29
// across the transfer, triggers it, and reports completion in bit 31;
// a data register read after a read command completes; and a data
// register written before a write command is issued.
const (
	regI2CCmd  = 0x8020
	regI2CData = 0x8024
	regI2CWr   = 0x8028

	bitI2CGo        = 1 << 28
	bitI2CRead      = 1 << 7
	bitI2CDone      = 1 << 31
	i2cPreserveMask = 0xfff << 18
	i2cStatusShift  = 24
	i2cStatusMask   = 0xf

	i2cPollAttempts = 10
	i2cPollInterval = 10 * time.Millisecond
)

// I2CRead performs a 4-byte read from the I2C bridge at the given
// 7-bit slave address and target register. It polls the done bit up
// to 10 times at 10ms intervals and returns NotFound if the status
// nibble comes back non-zero (no ACK from the downstream device), or
// Timeout if the poll is exhausted.
func (d *Device) I2CRead(ctx context.Context, addr uint8, reg uint8) (uint32, error) {
	if err := d.i2cTrigger(ctx, addr, reg, bitI2CRead); err != nil {
		return 0, err
	}
	return d.ReadRegister(ctx, regI2CData)
}

// I2CWrite performs a 4-byte write to the I2C bridge at the given
// 7-bit slave address and target register. The payload is staged in
// regI2CWr before the command register is triggered without the read
// direction bit set.
func (d *Device) I2CWrite(ctx context.Context, addr uint8, reg uint8, data uint32) error {
	if err := d.WriteRegister(ctx, regI2CWr, data); err != nil {
		return err
	}
	return d.i2cTrigger(ctx, addr, reg, 0)
}

// i2cTrigger preserves bits 18-29 of the current command register,
// sets the go bit plus any direction bit, packs the target register
// and 7-bit address into the low bytes, and polls for completion.
func (d *Device) i2cTrigger(ctx context.Context, addr, reg uint8, dirBit uint32) error {
	cur, err := d.ReadRegister(ctx, regI2CCmd)
	if err != nil {
		return err
	}
	cmd := (cur & i2cPreserveMask) | bitI2CGo | dirBit | uint32(reg)<<8 | uint32(addr&0x7f)
	if err := d.WriteRegister(ctx, regI2CCmd, cmd); err != nil {
		return err
	}
	return d.pollI2CDone(ctx)
}

// pollI2CDone polls the command register's done bit up to
// i2cPollAttempts times, i2cPollInterval apart. A non-zero status
// nibble once done is set means the slave did not ACK.
func (d *Device) pollI2CDone(ctx context.Context) error {
	for i := 0; i < i2cPollAttempts; i++ {
		val, err := d.ReadRegister(ctx, regI2CCmd)
		if err != nil {
			return err
		}
		if val&bitI2CDone != 0 {
			if (val>>i2cStatusShift)&i2cStatusMask != 0 {
				return NotFound
			}
			return nil
		}
		if i < i2cPollAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(i2cPollInterval):
			}
		}
	}
	return Timeout
}
