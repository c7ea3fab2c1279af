// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"strings"

	"github.com/osmocom/osmo-fl2k/device"
)

// ChannelMask parses a command-line argument naming the enabled DAC
// channels as any combination of the letters r, g, and b (case
// insensitive, e.g. "rgb", "rb", "g"). An empty argument is invalid;
// use the library default instead of calling this function.
func ChannelMask(arg string) (device.Channel, error) {
	var mask device.Channel
	for _, c := range strings.ToLower(arg) {
		switch c {
		case 'r':
			mask |= device.ChannelR
		case 'g':
			mask |= device.ChannelG
		case 'b':
			mask |= device.ChannelB
		default:
			return 0, fmt.Errorf("invalid channel %q, want one of r, g, b", c)
		}
	}
	if mask == 0 {
		return 0, fmt.Errorf("no channels enabled in %q", arg)
	}
	return mask, nil
}
