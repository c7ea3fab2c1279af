// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
fl2kfile streams a raw 8-bit sample file to an FL2000 adapter. The file
holds consecutive blocks of raw unsigned bytes; in multi-channel mode
each block is three same-length segments, R then G then B, and in
single-channel mode the whole file is one R-only stream. Playback
loops back to the start of the file on EOF unless -1/--once is given.

	Usage: fl2kfile [FLAGS] FILE

	Flags:
	-r, --rate      Sample rate, accepts k/M/G suffixes (default 100M)
	-c, --channels  Enabled channels in multi-channel mode, any of r,g,b (default rgb)
	-s, --single    Use single-channel (palette) mode
	-n, --buffers   Number of outstanding transfers (default 16)
	-l, --length    Per-call buffer length in bytes (default 65536)
	-1, --once      Stop at end of file instead of looping
*/
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/osmocom/osmo-fl2k/device"
	"github.com/osmocom/osmo-fl2k/helpers/event"
	"github.com/osmocom/osmo-fl2k/helpers/parse"
	"github.com/osmocom/osmo-fl2k/stream"
)

func main() {
	rateArg := pflag.StringP("rate", "r", "100M", "Sample rate, accepts k/M/G suffixes")
	chanArg := pflag.StringP("channels", "c", "rgb", "Enabled channels in multi-channel mode")
	single := pflag.BoolP("single", "s", false, "Use single-channel (palette) mode")
	numBuffers := pflag.IntP("buffers", "n", 16, "Number of outstanding transfers")
	bufLen := pflag.IntP("length", "l", 65536, "Per-call buffer length in bytes")
	once := pflag.BoolP("once", "1", false, "Stop at end of file instead of looping")
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fl2kfile [FLAGS] FILE")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	rate, err := parse.SampleRate(*rateArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid rate: %v\n", err)
		os.Exit(1)
	}
	mask, err := parse.ChannelMask(*chanArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid channels: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(pflag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	log := &stderrLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev, err := device.New(ctx, 0, device.WithLogger(log), device.WithSampleRate(rate), device.WithChannelMask(mask))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open device failed: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	mode := device.MultiChan
	if *single {
		mode = device.SingleChan
	}
	if err := dev.SetMode(ctx, mode); err != nil {
		fmt.Fprintf(os.Stderr, "set mode failed: %v\n", err)
		os.Exit(1)
	}

	events := event.NewChan(4)
	go func() {
		for msg := range events.C {
			if msg.DeviceLost {
				fmt.Fprintln(os.Stderr, "fl2kfile: device lost")
				cancel()
				return
			}
		}
	}()

	reader := &loopingReader{f: f, loop: !*once, done: make(chan struct{})}
	producer := func(req stream.FillRequest) (r, g, b []byte) {
		if req.DeviceError {
			return nil, nil, nil
		}
		return reader.fill(*bufLen, *single)
	}

	engine := stream.NewEngine(dev, log, events)
	if err := engine.Start(ctx, producer, *numBuffers, *bufLen, mode, false); err != nil {
		fmt.Fprintf(os.Stderr, "start failed: %v\n", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	select {
	case <-sigCh:
	case <-reader.done:
	}

	_ = engine.Stop()
	<-engine.Done()
}

// loopingReader supplies linear per-channel sample blocks from a raw
// file, restarting at the beginning on EOF unless loop is false. fill
// reads one R block when single is true, else an R, G and B block.
type loopingReader struct {
	f    *os.File
	loop bool
	done chan struct{}
}

func (r *loopingReader) fill(n int, single bool) (rb, gb, bb []byte) {
	read := func(n int) []byte {
		buf := make([]byte, n)
		if _, err := io.ReadFull(r.f, buf); err != nil {
			if !r.loop {
				select {
				case <-r.done:
				default:
					close(r.done)
				}
				return buf
			}
			if _, err := r.f.Seek(0, io.SeekStart); err != nil {
				return buf
			}
			io.ReadFull(r.f, buf)
		}
		return buf
	}
	if single {
		return read(n), nil, nil
	}
	return read(n), read(n), read(n)
}

type stderrLogger struct{}

func (l *stderrLogger) Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
