// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package parse provides command-line argument parsing helpers shared
// by the cmd/fl2k* example consumers.
package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// SampleRate parses a sample rate specified as a command-line
// argument. For convenience, valid arguments can have a suffix of k,
// K, m, M, g, or G to indicate the value is in kHz, MHz, or GHz
// respectively (e.g. 100M). Any text before such a suffix must
// represent a valid floating point value as parsed by
// strconv.ParseFloat(). The return value is the parsed rate in Hz.
func SampleRate(arg string) (float64, error) {
	var mult float64 = 1
	arg = strings.ToLower(strings.TrimSpace(arg))
	switch {
	case arg == "":
		// do nothing
	case strings.HasSuffix(arg, "k"):
		mult = 1000
		arg = strings.TrimSuffix(arg, "k")
	case strings.HasSuffix(arg, "m"):
		mult = 1000 * 1000
		arg = strings.TrimSuffix(arg, "m")
	case strings.HasSuffix(arg, "g"):
		mult = 1000 * 1000 * 1000
		arg = strings.TrimSuffix(arg, "g")
	}
	rate, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate; got %f Hz, want a positive value", rate)
	}
	return rate * mult, nil
}
