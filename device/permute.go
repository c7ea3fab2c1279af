// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import "fmt"

// Byte-group size for both permutations: 8 input samples per channel
// map onto 24 output bytes in MultiChan mode, and 8 input bytes map
// onto 8 output bytes (word-pair swapped) in SingleChan mode.
const permuteGroupSamples = 8

// Target offsets, within a 24-byte output group, that each channel's
// 8 input samples are scattered to, in input order. These come from
// the FL2000 wire format and must be reproduced byte-for-byte;
// together the three offset sets are a bijection on {0,...,23}.
var (
	offsetsR = [permuteGroupSamples]int{6, 1, 12, 15, 10, 21, 16, 19}
	offsetsG = [permuteGroupSamples]int{5, 0, 3, 14, 9, 20, 23, 18}
	offsetsB = [permuteGroupSamples]int{4, 7, 2, 13, 8, 11, 22, 17}
)

// bias adds 128 to a sample if signed is true, converting a two's
// complement sample into unsigned DAC space. The wrap is implicit in
// byte arithmetic.
func bias(v byte, signed bool) byte {
	if signed {
		return v + 128
	}
	return v
}

// PermuteMultiChan maps three equal-length linear channel buffers
// into the FL2000's on-wire multi-channel layout. out must be exactly
// 3*len(r) bytes; len(r) must be a multiple of 8.
func PermuteMultiChan(r, g, b []byte, signed bool, out []byte) error {
	n := len(r)
	if len(g) != n || len(b) != n {
		return fmt.Errorf("fl2k: channel length mismatch: r=%d g=%d b=%d", n, len(g), len(b))
	}
	if n%permuteGroupSamples != 0 {
		return fmt.Errorf("fl2k: channel length %d not a multiple of %d", n, permuteGroupSamples)
	}
	if len(out) != n*3 {
		return fmt.Errorf("fl2k: output length %d, want %d", len(out), n*3)
	}

	for base := 0; base < n; base += permuteGroupSamples {
		group := out[(base/permuteGroupSamples)*24:]
		for k := 0; k < permuteGroupSamples; k++ {
			group[offsetsR[k]] = bias(r[base+k], signed)
			group[offsetsG[k]] = bias(g[base+k], signed)
			group[offsetsB[k]] = bias(b[base+k], signed)
		}
	}
	return nil
}

// PermuteSingleChan rewrites every 8-byte group of in as
// [in[4:8], in[0:4]] (a 32-bit word-pair swap) with the same optional
// +128 bias. out must be the same length as in, a multiple of 8.
func PermuteSingleChan(in []byte, signed bool, out []byte) error {
	n := len(in)
	if n%permuteGroupSamples != 0 {
		return fmt.Errorf("fl2k: buffer length %d not a multiple of %d", n, permuteGroupSamples)
	}
	if len(out) != n {
		return fmt.Errorf("fl2k: output length %d, want %d", len(out), n)
	}

	for base := 0; base < n; base += permuteGroupSamples {
		for i := 0; i < 4; i++ {
			out[base+i] = bias(in[base+4+i], signed)
			out[base+4+i] = bias(in[base+i], signed)
		}
	}
	return nil
}
