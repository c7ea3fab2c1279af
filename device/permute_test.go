// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestChannelOffsetsAreABijection(t *testing.T) {
	seen := make(map[int]string)
	for _, ch := range []struct {
		name string
		offs [8]int
	}{
		{"R", offsetsR},
		{"G", offsetsG},
		{"B", offsetsB},
	} {
		for _, o := range ch.offs {
			if prev, ok := seen[o]; ok {
				t.Fatalf("offset %d claimed by both %s and %s", o, prev, ch.name)
			}
			seen[o] = ch.name
		}
	}
	assert.Len(t, seen, 24, "offsets must cover all 24 positions in the group exactly once")
}

func TestPermuteMultiChanIsReversible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := rapid.IntRange(1, 8).Draw(t, "groups")
		n := groups * permuteGroupSamples
		r := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "r")
		g := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "g")
		b := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "b")

		out := make([]byte, n*3)
		err := PermuteMultiChan(r, g, b, false, out)
		assert.NoError(t, err)

		for base := 0; base < n; base += permuteGroupSamples {
			group := out[(base/permuteGroupSamples)*24:]
			for k := 0; k < permuteGroupSamples; k++ {
				assert.Equal(t, r[base+k], group[offsetsR[k]])
				assert.Equal(t, g[base+k], group[offsetsG[k]])
				assert.Equal(t, b[base+k], group[offsetsB[k]])
			}
		}
	})
}

func TestPermuteMultiChanSignedBias(t *testing.T) {
	r := make([]byte, permuteGroupSamples)
	g := make([]byte, permuteGroupSamples)
	b := make([]byte, permuteGroupSamples)
	out := make([]byte, permuteGroupSamples*3)
	assert.NoError(t, PermuteMultiChan(r, g, b, true, out))
	for _, v := range out {
		assert.Equal(t, byte(128), v)
	}
}

func TestPermuteMultiChanLengthValidation(t *testing.T) {
	out := make([]byte, 24)
	err := PermuteMultiChan(make([]byte, 7), make([]byte, 7), make([]byte, 7), false, out)
	assert.Error(t, err, "length not a multiple of 8 must be rejected")

	err = PermuteMultiChan(make([]byte, 8), make([]byte, 9), make([]byte, 8), false, out)
	assert.Error(t, err, "mismatched channel lengths must be rejected")
}

// TestPermuteSingleChanIsInvolution verifies that applying the
// single-channel permutation to its own output, with the same signed
// flag, reproduces the original input. Both the word-pair swap and the
// +128 bias are self-inverse.
func TestPermuteSingleChanIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		groups := rapid.IntRange(1, 16).Draw(t, "groups")
		n := groups * permuteGroupSamples
		in := rapid.SliceOfN(rapid.Byte(), n, n).Draw(t, "in")
		signed := rapid.Bool().Draw(t, "signed")

		mid := make([]byte, n)
		assert.NoError(t, PermuteSingleChan(in, signed, mid))
		back := make([]byte, n)
		assert.NoError(t, PermuteSingleChan(mid, signed, back))

		assert.Equal(t, in, back)
	})
}
