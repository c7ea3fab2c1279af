// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

/*
fl2ktcp streams samples received over a TCP connection to an FL2000
adapter. It connects to a remote sample source and reads a continuous
byte stream: three equal-length R, G, B segments per block in
multi-channel mode, or an R-only stream in single-channel mode. This
is an example consumer, not part of the core library; the core never
imports net.

	Usage: fl2ktcp [FLAGS] HOST:PORT

	Flags:
	-r, --rate      Sample rate, accepts k/M/G suffixes (default 100M)
	-c, --channels  Enabled channels in multi-channel mode, any of r,g,b (default rgb)
	-s, --single    Use single-channel (palette) mode
	-n, --buffers   Number of outstanding transfers (default 16)
	-l, --length    Per-call buffer length in bytes (default 65536)
*/
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"time"

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
	pflag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: fl2ktcp [FLAGS] HOST:PORT")
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

	conn, err := net.DialTimeout("tcp", pflag.Arg(0), 5*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

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
	connClosed := make(chan struct{})
	go func() {
		for msg := range events.C {
			if msg.DeviceLost {
				fmt.Fprintln(os.Stderr, "fl2ktcp: device lost")
				cancel()
				return
			}
		}
	}()

	var closeOnce sync.Once
	signalClosed := func() { closeOnce.Do(func() { close(connClosed) }) }

	producer := func(req stream.FillRequest) (r, g, b []byte) {
		if req.DeviceError {
			return nil, nil, nil
		}
		rb := make([]byte, *bufLen)
		gb := make([]byte, *bufLen)
		bb := make([]byte, *bufLen)
		if _, err := io.ReadFull(conn, rb); err != nil {
			signalClosed()
			return nil, nil, nil
		}
		if *single {
			return rb, nil, nil
		}
		if _, err := io.ReadFull(conn, gb); err != nil {
			signalClosed()
			return nil, nil, nil
		}
		if _, err := io.ReadFull(conn, bb); err != nil {
			signalClosed()
			return nil, nil, nil
		}
		return rb, gb, bb
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
	case <-connClosed:
	}

	_ = engine.Stop()
	<-engine.Done()
}

type stderrLogger struct{}

func (l *stderrLogger) Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
