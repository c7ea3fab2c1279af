// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osmocom/osmo-fl2k/device"
	"github.com/osmocom/osmo-fl2k/helpers/event"
)

// fakeTransport is an in-memory device.Transport for exercising Engine
// without real hardware. BulkWrite counts writes and honors ctx
// cancellation so the pump's shutdown path can be driven directly.
type fakeTransport struct {
	mu      sync.Mutex
	regs    map[uint16]uint32
	writes  int
	written [][]byte
	failAt  int // BulkWrite returns an error on this call number, 0 disables
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{regs: make(map[uint16]uint32)}
}

func (f *fakeTransport) ControlRead(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.regs[index]
	buf[0], buf[1], buf[2], buf[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
	return 4, nil
}

func (f *fakeTransport) ControlWrite(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[index] = uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	return len(buf), nil
}

func (f *fakeTransport) BulkWrite(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	f.writes++
	n := f.writes
	fail := f.failAt != 0 && n >= f.failAt
	if !fail {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		f.written = append(f.written, cp)
	}
	f.mu.Unlock()

	if fail {
		return 0, errors.New("fake: simulated device loss")
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	return len(buf), nil
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeTransport) writtenBufs() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

func newTestDevice(t *testing.T) *device.Device {
	t.Helper()
	d, err := device.New(context.Background(), 0, device.WithTransport(newFakeTransport()))
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return d
}

func newTestDeviceWithTransport(t *testing.T, ft *fakeTransport) *device.Device {
	t.Helper()
	d, err := device.New(context.Background(), 0, device.WithTransport(ft))
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return d
}

func TestEngineStartProduceStop(t *testing.T) {
	d := newTestDevice(t)
	e := NewEngine(d, nil, nil)

	var calls int32
	producer := func(req FillRequest) (r, g, b []byte) {
		atomic.AddInt32(&calls, 1)
		buf := make([]byte, 8)
		return buf, buf, buf
	}

	if err := e.Start(context.Background(), producer, 2, 8, device.MultiChan, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Let some transfers go out.
	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&calls) < 5 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if atomic.LoadInt32(&calls) < 5 {
		t.Fatalf("producer called only %d times, want at least 5", calls)
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("engine did not drain after Stop")
	}

	if d.Streaming() {
		t.Error("device still marked Streaming after engine drained")
	}
}

func TestEngineSecondStartReturnsBusy(t *testing.T) {
	d := newTestDevice(t)
	e := NewEngine(d, nil, nil)
	producer := func(req FillRequest) (r, g, b []byte) {
		buf := make([]byte, 8)
		return buf, buf, buf
	}
	if err := e.Start(context.Background(), producer, 1, 8, device.MultiChan, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(context.Background(), producer, 1, 8, device.MultiChan, false); err != device.Busy {
		t.Errorf("second Start = %v, want Busy", err)
	}
	_ = e.Stop()
	<-e.Done()
}

func TestEngineUnderflowCountsOnProducerStarvation(t *testing.T) {
	d := newTestDevice(t)
	e := NewEngine(d, nil, nil)

	var release sync.WaitGroup
	release.Add(1)
	var calls int32
	producer := func(req FillRequest) (r, g, b []byte) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			buf := make([]byte, 8)
			return buf, buf, buf
		}
		// Starve the engine after the first buffer: block until the
		// test releases it, so the pump must resubmit its own buffer
		// repeatedly.
		release.Wait()
		buf := make([]byte, 8)
		return buf, buf, buf
	}

	if err := e.Start(context.Background(), producer, 1, 8, device.MultiChan, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for e.Underflows() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if e.Underflows() == 0 {
		t.Fatal("expected underflow count to grow under producer starvation")
	}

	release.Done()
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("engine did not drain after Stop")
	}
}

// TestEngineWritesBuffersInAscendingSequenceOrder drives the engine
// with a producer slow enough to force the pump through a mix of
// pipeline advances and underflow resubmissions, then checks that the
// embedded sequence marker in every buffer actually written to the
// transport is non-decreasing. A single pump goroutine guarantees
// this; two goroutines racing to write the endpoint would not.
func TestEngineWritesBuffersInAscendingSequenceOrder(t *testing.T) {
	ft := newFakeTransport()
	d := newTestDeviceWithTransport(t, ft)
	e := NewEngine(d, nil, nil)

	var seq byte
	producer := func(req FillRequest) (r, g, b []byte) {
		// Saturate rather than wrap: a single byte marker is enough to
		// check ordering over the handful of writes this test needs,
		// and saturating avoids a false failure from byte wraparound.
		if seq < 200 {
			seq++
		}
		// Every byte of the buffer carries the same marker, so the
		// permutation step's byte scatter doesn't disturb the check:
		// whatever offset a sample lands at, it still reads as seq.
		buf := make([]byte, 8)
		for i := range buf {
			buf[i] = seq
		}
		if seq%3 == 0 {
			// Occasionally stall to provoke an underflow resubmission.
			time.Sleep(2 * time.Millisecond)
		}
		return buf, buf, buf
	}

	if err := e.Start(context.Background(), producer, 2, 8, device.MultiChan, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for ft.writeCount() < 20 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("engine did not drain after Stop")
	}

	bufs := ft.writtenBufs()
	if len(bufs) < 20 {
		t.Fatalf("only %d buffers written, want at least 20", len(bufs))
	}
	var prev byte
	for i, b := range bufs {
		marker := b[0]
		if marker < prev {
			t.Fatalf("buffer %d has sequence marker %d, which is less than the prior buffer's %d: out-of-order write", i, marker, prev)
		}
		prev = marker
	}
}

func TestEngineDeviceLossSynthesizesFinalCallback(t *testing.T) {
	d, err := device.New(context.Background(), 0, device.WithTransport(&fakeTransport{regs: make(map[uint16]uint32), failAt: 2}))
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	events := event.NewChan(1)
	e := NewEngine(d, nil, events)

	final := make(chan bool, 1)
	producer := func(req FillRequest) (r, g, b []byte) {
		if req.DeviceError {
			final <- true
			return nil, nil, nil
		}
		buf := make([]byte, 8)
		return buf, buf, buf
	}

	if err := e.Start(context.Background(), producer, 1, 8, device.MultiChan, false); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-final:
	case <-time.After(time.Second):
		t.Fatal("final DeviceError callback never arrived after simulated device loss")
	}

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("engine did not drain after device loss")
	}

	select {
	case msg := <-events.C:
		if !msg.DeviceLost {
			t.Error("event.Msg.DeviceLost = false, want true")
		}
	case <-time.After(time.Second):
		t.Fatal("no DeviceLost event delivered")
	}
}
