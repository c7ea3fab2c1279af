// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"time"
)

// VendorID and ProductID are the single built-in VID/PID pair this
// library recognizes.
const (
	VendorID  = 0x1d5c
	ProductID = 0x2000
)

const (
	// bulkOutEndpoint is the single bulk OUT endpoint the FL2000
	// streams sample data to.
	bulkOutEndpoint = 0x01

	// massStorageInterface is the interface the adapter exposes for
	// an emulated flash used by the Windows driver installer. The
	// kernel may attach a mass-storage driver to it that must be
	// detached before interface 0 can be claimed exclusively.
	massStorageInterface = 3

	registerTimeout = 300 * time.Millisecond
)

// reqRegRead and reqRegWrite are the vendor bRequest codes for the two
// legal ways to mutate device state outside of bulk streaming.
const (
	reqRegRead  = 0x40
	reqRegWrite = 0x41
)

// Transport abstracts the USB operations the device layer needs: vendor
// control transfers for register I/O and the I2C bridge, and bulk OUT
// writes for streaming. It exists so that (a) the real gousb-backed
// implementation and a fake can be verified against the same contract,
// and (b) code above this layer can be tested without real hardware
// attached.
type Transport interface {
	// ControlRead issues a vendor|device|in control transfer and
	// returns the payload bytes read, up to len(buf).
	ControlRead(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error)

	// ControlWrite issues a vendor|device|out control transfer.
	ControlWrite(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error)

	// BulkWrite writes buf to the bulk OUT endpoint. The caller never
	// issues two BulkWrite calls concurrently: a single goroutine drains
	// the transfer pool in sequence order, so implementations do not
	// need to serialize internally.
	BulkWrite(ctx context.Context, buf []byte) (int, error)

	// Close releases the transport's USB resources: interface,
	// configuration, device handle, and context.
	Close() error
}

// readRegister performs a register read: a single vendor control
// transfer with a 300ms timeout, bRequest 0x40, a 4-byte little-endian
// payload. Fewer than 4 bytes returned is a ShortRead.
func readRegister(ctx context.Context, t Transport, reg uint16) (uint32, error) {
	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	var buf [4]byte
	n, err := t.ControlRead(ctx, reqRegRead, 0, reg, buf[:])
	if err != nil {
		return 0, err
	}
	if n < 4 {
		return 0, ShortRead
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

// writeRegister performs a register write: a single vendor control
// transfer with a 300ms timeout, bRequest 0x41, a 4-byte little-endian
// payload. A short write is an IO error.
func writeRegister(ctx context.Context, t Transport, reg uint16, val uint32) error {
	ctx, cancel := context.WithTimeout(ctx, registerTimeout)
	defer cancel()

	buf := [4]byte{
		byte(val),
		byte(val >> 8),
		byte(val >> 16),
		byte(val >> 24),
	}
	n, err := t.ControlWrite(ctx, reqRegWrite, 0, reg, buf[:])
	if err != nil {
		return err
	}
	if n < len(buf) {
		return IO
	}
	return nil
}
