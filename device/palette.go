// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import "context"

// Palette registers: entry i is programmed through regPaletteData
// with payload (rgb24<<8)|i. Verification reads back through
// regPaletteAddr, which has a fixed +1 offset quirk on its pointer.
const (
	regPaletteData = 0x805c
	regPaletteAddr = 0x8060
)

// LoadCustomPalette programs all 256 palette entries with rgb24[i]
// packed as 0xRRGGBB, then verifies each with a quirky read-back
// sequence: write (i+1)&0xff to regPaletteAddr, read regPaletteData,
// and compare. Mismatches are logged but not fatal.
func (d *Device) LoadCustomPalette(ctx context.Context, rgb24 [256]uint32) error {
	for i := 0; i < 256; i++ {
		payload := (rgb24[i] << 8) | uint32(i)
		if err := d.WriteRegister(ctx, regPaletteData, payload); err != nil {
			return err
		}
	}
	for i := 0; i < 256; i++ {
		if err := d.WriteRegister(ctx, regPaletteAddr, uint32((i+1)&0xff)); err != nil {
			return err
		}
		got, err := d.ReadRegister(ctx, regPaletteData)
		if err != nil {
			return err
		}
		want := (rgb24[i] << 8) | uint32(i)
		if got != want {
			d.log.Printf("fl2k: palette verify mismatch at entry %d: got 0x%08x, want 0x%08x", i, got, want)
		}
	}
	return nil
}

// rampPalette builds a palette where the given channels emit an 8-bit
// linear ramp on the index byte and the rest are zero, used by
// SetMode(SingleChan) (a ramp on the red channel) and
// SetEnabledChannels (a ramp on each enabled channel).
func rampPalette(mask Channel) [256]uint32 {
	var pal [256]uint32
	for i := 0; i < 256; i++ {
		var rgb uint32
		if mask&ChannelR != 0 {
			rgb |= uint32(i) << 16
		}
		if mask&ChannelG != 0 {
			rgb |= uint32(i) << 8
		}
		if mask&ChannelB != 0 {
			rgb |= uint32(i)
		}
		pal[i] = rgb
	}
	return pal
}

// SetMode switches between SingleChan and MultiChan. The switch is
// rejected with Busy while streaming and is idempotent. Switching
// into SingleChan sets the palette-lookup bits and programs a linear
// ramp on the red channel; switching into MultiChan clears them.
func (d *Device) SetMode(ctx context.Context, m Mode) error {
	if d.Streaming() {
		return Busy
	}
	if d.Mode() == m {
		return nil
	}

	ctrl, err := d.ReadRegister(ctx, regModeCtrl)
	if err != nil {
		return err
	}

	switch m {
	case SingleChan:
		if err := d.LoadCustomPalette(ctx, rampPalette(ChannelR)); err != nil {
			return err
		}
		ctrl |= bitPaletteOn | bitPaletteOn2
	case MultiChan:
		ctrl &^= bitPaletteOn | bitPaletteOn2
	default:
		return InvalidParam
	}

	if err := d.WriteRegister(ctx, regModeCtrl, ctrl); err != nil {
		return err
	}

	d.mu.Lock()
	d.mode = m
	d.mu.Unlock()
	return nil
}

// SetEnabledChannels programs a palette whose entries emit 8-bit ramps
// only on the enabled channels and zero on the others, and records the
// mask. In MultiChan mode the palette is bypassed, so the mask has no
// effect on the DAC outputs: unused channels are not zeroed and carry
// whatever samples the producer supplies. Changing the mask mid-stream
// is undefined; this method does not guard against it.
func (d *Device) SetEnabledChannels(ctx context.Context, mask Channel) error {
	if mask == 0 || mask&^ChannelAll != 0 {
		return InvalidParam
	}
	if err := d.LoadCustomPalette(ctx, rampPalette(mask)); err != nil {
		return err
	}
	d.mu.Lock()
	d.mask = mask
	d.mu.Unlock()
	return nil
}
