// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"math"
)

// refClockHz is the fixed reference clock feeding the PLL.
const refClockHz = 160e6

// pllWord is the 32-bit PLL configuration register value: bits 0-5
// div, bits 8-11 outDiv, bits 16-19 frac, bits 20-23 mult.
type pllWord struct {
	div    uint32 // [2,63]
	outDiv uint32 // [1,15], fixed at 1 by the solver
	frac   uint32 // [1,15]
	mult   uint32 // [3,6]
}

func (w pllWord) encode() uint32 {
	return (w.div & 0x3f) | (w.outDiv&0xf)<<8 | (w.frac&0xf)<<16 | (w.mult&0xf)<<20
}

func decodePLLWord(reg uint32) pllWord {
	return pllWord{
		div:    reg & 0x3f,
		outDiv: (reg >> 8) & 0xf,
		frac:   (reg >> 16) & 0xf,
		mult:   (reg >> 20) & 0xf,
	}
}

// decodeRate implements the PLL's rate formula:
//
//	base = (160e6 * mult) / div
//	offset = (base / (160e6 * mult / 5)) * 1e6
//	decoded = (base + offset*frac) / outDiv
func decodeRate(w pllWord) float64 {
	base := (refClockHz * float64(w.mult)) / float64(w.div)
	offset := (base / (refClockHz * float64(w.mult) / 5)) * 1e6
	return (base + offset*float64(w.frac)) / float64(w.outDiv)
}

// solvePLL performs an exhaustive search over mult in {6,5,4,3} (6
// first, preferred for spectral purity), div in [63,2] descending,
// frac in [1,15] ascending, with outDiv fixed at 1. The first exact or
// near-minimum match wins; ties are broken by iteration order, i.e.
// the first found is kept.
func solvePLL(targetHz float64) (pllWord, float64) {
	var (
		best      pllWord
		bestRate  float64
		bestErr   = math.MaxFloat64
		firstIter = true
	)
	for _, mult := range [...]uint32{6, 5, 4, 3} {
		for div := uint32(63); div >= 2; div-- {
			for frac := uint32(1); frac <= 15; frac++ {
				w := pllWord{div: div, outDiv: 1, frac: frac, mult: mult}
				rate := decodeRate(w)
				err := math.Abs(rate - targetHz)
				if firstIter || err < bestErr {
					best, bestRate, bestErr = w, rate, err
					firstIter = false
				}
				if bestErr == 0 {
					return best, bestRate
				}
			}
		}
	}
	return best, bestRate
}

// SetSampleRate runs the PLL solver for hz, programs the result into
// the PLL register, and stores the decoded rate as the device's
// effective rate. A warning is logged if the decoded rate misses the
// target by more than 1 Hz; the decoded rate is stored regardless.
func (d *Device) SetSampleRate(ctx context.Context, hz float64) error {
	if hz <= 0 {
		return InvalidParam
	}
	word, decoded := solvePLL(hz)
	if err := d.WriteRegister(ctx, regPLL, word.encode()); err != nil {
		return err
	}
	if diff := math.Abs(decoded - hz); diff > 1 {
		d.log.Printf("fl2k: PLL solution for %.3f Hz decodes to %.3f Hz (%.3f Hz off)", hz, decoded, diff)
	}
	d.mu.Lock()
	d.sampleHz = decoded
	d.mu.Unlock()
	return nil
}
