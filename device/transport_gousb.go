// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !mips && !mipsle
// +build !mips,!mipsle

// This file is excluded on MIPS builds because gousb's underlying
// libusb binding does not support that platform.

package device

import (
	"context"

	"github.com/google/gousb"
)

// gousbTransport is the real Transport backed by github.com/google/gousb,
// the Go binding for libusb, used for direct USB bulk access to hardware,
// bypassing any kernel driver.
type gousbTransport struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	config *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
}

// openGousbTransport enumerates the bus, selects the n-th device (0
// indexed) matching VendorID/ProductID, and claims it: detach a kernel
// mass-storage driver from interface 3 if attached, claim interface 0
// alternate setting 1, falling back to interface 1 as-is if that fails
// (a real observed hardware variation, not a defensive branch).
func openGousbTransport(index int, log Logger) (*gousbTransport, error) {
	ctx := gousb.NewContext()
	ctx.Debug(0)

	var (
		found int
		dev   *gousb.Device
	)
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if uint16(desc.Vendor) == VendorID && uint16(desc.Product) == ProductID {
			if found == index {
				return true
			}
			found++
		}
		return false
	})
	for _, d := range devs {
		if dev == nil {
			dev = d
			continue
		}
		d.Close()
	}
	if err != nil && dev == nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, InvalidParam
	}

	// The adapter exposes an emulated flash drive for the Windows driver
	// installer on interface 3. If the kernel has attached a mass-storage
	// driver to it, auto-detach needs to kick it off before interface 0
	// can be claimed exclusively. This can observably take >10s.
	log.Printf("fl2k: detaching kernel driver from interface %d may take >10s", massStorageInterface)
	_ = dev.SetAutoDetach(true)

	// gousb's control transfers do not take a context, so the register
	// timeout is applied through the device's control timeout instead.
	dev.ControlTimeout = registerTimeout

	config, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, err
	}

	intf, epOut, err := claimBulkInterface(config)
	if err != nil {
		config.Close()
		dev.Close()
		ctx.Close()
		return nil, err
	}

	return &gousbTransport{ctx: ctx, dev: dev, config: config, intf: intf, epOut: epOut}, nil
}

// claimBulkInterface claims interface 0 alt-setting 1 (the bulk-out
// endpoint path). If that fails, it falls back to claiming interface 1
// as-is and continues.
func claimBulkInterface(config *gousb.Config) (*gousb.Interface, *gousb.OutEndpoint, error) {
	intf, err := config.Interface(0, 1)
	if err != nil {
		intf, err = config.Interface(1, 0)
		if err != nil {
			return nil, nil, err
		}
	}
	ep, err := intf.OutEndpoint(bulkOutEndpoint)
	if err != nil {
		intf.Close()
		return nil, nil, err
	}
	return intf, ep, nil
}

// bmRequestType values for a vendor-type, device-recipient control
// transfer, combining direction|type|recipient per the USB spec
// (0x80 IN / 0x00 OUT, 0x40 vendor, 0x00 device).
const (
	bmRequestTypeVendorIn  = 0xC0
	bmRequestTypeVendorOut = 0x40
)

func (t *gousbTransport) ControlRead(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	return t.dev.Control(bmRequestTypeVendorIn, request, value, index, buf)
}

func (t *gousbTransport) ControlWrite(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	return t.dev.Control(bmRequestTypeVendorOut, request, value, index, buf)
}

func (t *gousbTransport) BulkWrite(ctx context.Context, buf []byte) (int, error) {
	return t.epOut.WriteContext(ctx, buf)
}

func (t *gousbTransport) Close() error {
	if t.intf != nil {
		t.intf.Close()
	}
	if t.config != nil {
		t.config.Close()
	}
	if t.dev != nil {
		t.dev.Close()
	}
	if t.ctx != nil {
		t.ctx.Close()
	}
	return nil
}

// countDevices enumerates the bus and counts devices matching
// VendorID/ProductID.
func countDevices() (int, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var n int
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if uint16(desc.Vendor) == VendorID && uint16(desc.Product) == ProductID {
			n++
		}
		return false
	})
	for _, d := range devs {
		d.Close()
	}
	return n, err
}
