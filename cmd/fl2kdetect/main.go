// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
fl2kdetect is a command-line utility that counts the FL2000 adapters
currently attached to the bus.

	Usage: fl2kdetect [FLAGS]

	Flags:
	-q, --quiet
		Print only the count, no surrounding text.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/osmocom/osmo-fl2k/device"
)

func main() {
	quiet := pflag.BoolP("quiet", "q", false, "Print only the count, no surrounding text.")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fl2kdetect [FLAGS]")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	n, err := device.Enumerate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "enumerate failed: %v\n", err)
		os.Exit(1)
	}

	if *quiet {
		fmt.Println(n)
		return
	}
	switch n {
	case 0:
		fmt.Println("no FL2000 adapters found")
	case 1:
		fmt.Println("1 FL2000 adapter found")
	default:
		fmt.Printf("%d FL2000 adapters found\n", n)
	}
}
