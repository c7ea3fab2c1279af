// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/osmocom/osmo-fl2k/device"
	"github.com/osmocom/osmo-fl2k/helpers/event"
)

type engineStatus int32

const (
	statusInactive engineStatus = iota
	statusRunning
	statusCanceling
)

// Engine is the double-buffered streaming engine for one Device. Start
// and Stop drive the INACTIVE -> RUNNING -> CANCELING -> INACTIVE state
// machine; a caller that wants to block until a stop fully drains reads
// from the channel returned by Done.
type Engine struct {
	dev    *device.Device
	log    device.Logger
	events *event.Chan

	status     int32
	lost       int32
	underflows uint64

	pool     *pool
	producer ProducerFunc
	mode     device.Mode
	signed   bool
	bufLen   int

	pumpCtx    context.Context
	pumpCancel context.CancelFunc
	wg         sync.WaitGroup
	done       chan struct{}
}

// NewEngine creates an Engine bound to dev. events may be nil if the
// caller does not want an asynchronous device-lost notification (the
// engine sends no other messages on it); the final DeviceError producer
// callback, Underflows, and Done are available regardless.
func NewEngine(dev *device.Device, log device.Logger, events *event.Chan) *Engine {
	if log == nil {
		log = device.DiscardLogger()
	}
	return &Engine{dev: dev, log: log, events: events, done: make(chan struct{})}
}

// Start begins streaming. numBuffers is N, the depth of the transfer
// pool behind the single pump goroutine (the pool holds N+2 buffers so
// the producer can stay N buffers ahead of the wire); bufLen is L, the
// per-channel, per-call buffer length in bytes. It returns Busy if the
// engine is not INACTIVE.
func (e *Engine) Start(ctx context.Context, producer ProducerFunc, numBuffers, bufLen int, mode device.Mode, signed bool) error {
	if !atomic.CompareAndSwapInt32(&e.status, int32(statusInactive), int32(statusRunning)) {
		return device.Busy
	}
	if err := e.dev.BeginStreaming(); err != nil {
		atomic.StoreInt32(&e.status, int32(statusInactive))
		return err
	}

	e.producer = producer
	e.mode = mode
	e.signed = signed
	e.bufLen = bufLen
	e.pool = newPool(numBuffers, bufLen*3)
	e.pumpCtx, e.pumpCancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	atomic.StoreInt32(&e.lost, 0)
	atomic.StoreUint64(&e.underflows, 0)

	e.wg.Add(2)
	go e.producerLoop()
	go e.pumpLoop()

	go e.drainCoordinator()
	return nil
}

// Stop requests a transition to CANCELING and returns immediately.
// Calling it again while already CANCELING forces an immediate
// transition to INACTIVE, snapping out of a stuck drain. It returns
// Busy if the engine is already INACTIVE.
func (e *Engine) Stop() error {
	switch engineStatus(atomic.LoadInt32(&e.status)) {
	case statusRunning:
		atomic.StoreInt32(&e.status, int32(statusCanceling))
		e.pumpCancel()
		e.pool.wake()
		return nil
	case statusCanceling:
		atomic.StoreInt32(&e.status, int32(statusInactive))
		e.pumpCancel()
		e.pool.wake()
		return nil
	default:
		return device.Busy
	}
}

// Done returns a channel that is closed once the engine has fully
// drained back to INACTIVE after a Stop.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Underflows returns the cumulative count of resubmitted (repeated)
// buffers, i.e. callback cycles where the producer could not keep up.
func (e *Engine) Underflows() uint64 {
	return atomic.LoadUint64(&e.underflows)
}

// markLost sets the lost flag, forces a transition toward CANCELING,
// and wakes anything waiting on the pool so shutdown can proceed.
func (e *Engine) markLost() {
	if atomic.CompareAndSwapInt32(&e.lost, 0, 1) {
		atomic.StoreInt32(&e.status, int32(statusCanceling))
		e.pumpCancel()
		e.pool.wake()
		if e.events != nil {
			e.events.Callback(event.Msg{DeviceLost: true})
		}
	}
}

// drainCoordinator waits for the producer and the pump to exit, then
// releases the device's streaming flag and closes Done's channel.
func (e *Engine) drainCoordinator() {
	e.wg.Wait()
	atomic.StoreInt32(&e.status, int32(statusInactive))
	e.dev.EndStreaming()
	close(e.done)
}

// producerLoop invokes the producer callback, permutes its output
// into an EMPTY slot, and assigns the next sequence number, looping
// while the engine is RUNNING. On exit, if the device was lost, it
// synthesizes one final callback with DeviceError set so a producer
// blocked on external state can unwind.
func (e *Engine) producerLoop() {
	defer e.wg.Done()

	var seq, lastUnderflows uint64
	for engineStatus(atomic.LoadInt32(&e.status)) == statusRunning {
		underflows := atomic.LoadUint64(&e.underflows)
		if underflows > lastUnderflows {
			e.log.Printf("fl2k: underflow, %d transfer(s) repeated (total %d)", underflows-lastUnderflows, underflows)
			lastUnderflows = underflows
		}
		req := FillRequest{Underflows: underflows, SignedSamples: e.signed}

		var outBuf []byte
		switch e.mode {
		case device.MultiChan:
			r, g, b := e.producer(req)
			outBuf = make([]byte, e.bufLen*3)
			if err := device.PermuteMultiChan(r, g, b, e.signed, outBuf); err != nil {
				e.log.Printf("fl2k: permute error: %v", err)
				continue
			}
		case device.SingleChan:
			in := make([]byte, 0, e.bufLen*3)
			for i := 0; i < 3; i++ {
				r, _, _ := e.producer(req)
				in = append(in, r...)
			}
			outBuf = make([]byte, len(in))
			if err := device.PermuteSingleChan(in, e.signed, outBuf); err != nil {
				e.log.Printf("fl2k: permute error: %v", err)
				continue
			}
		}

		if engineStatus(atomic.LoadInt32(&e.status)) != statusRunning {
			break
		}

		s := e.pool.acquireEmpty()
		if s == nil {
			e.log.Printf("fl2k: producer dropped a callback cycle, no empty slot available")
			continue
		}
		copy(s.buf, outBuf)
		seq++
		e.pool.fill(s, seq)
	}

	if atomic.LoadInt32(&e.lost) != 0 {
		e.producer(FillRequest{Underflows: atomic.LoadUint64(&e.underflows), DeviceError: true})
	}
}

// pumpLoop is the single goroutine that ever touches the bulk OUT
// endpoint. A single writer is what keeps transfers leaving the wire
// in strict ascending sequence order: the pool's FILLED slots are
// claimed oldest-sequence-first, one at a time, by this goroutine
// alone, so there is no possibility of two writes racing for the
// endpoint or for the same slot. It owns one in-flight buffer at a
// time and, on completion, either hands off to the oldest FILLED slot
// (advancing the pipeline) or resubmits its own buffer unchanged if no
// new data is ready yet, bumping the underflow counter. The FL2000
// stalls permanently if the endpoint goes idle, so the pump never
// simply waits for data once it has something in hand.
func (e *Engine) pumpLoop() {
	defer e.wg.Done()

	notRunning := func() bool {
		return engineStatus(atomic.LoadInt32(&e.status)) != statusRunning
	}

	s := e.pool.waitOldestFilled(notRunning)
	if s == nil {
		return
	}

	for {
		_, err := e.dev.Transport().BulkWrite(e.pumpCtx, s.buf)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			e.markLost()
			return
		}

		if notRunning() {
			return
		}

		next := e.pool.claimOldestFilled()
		if next == nil {
			atomic.AddUint64(&e.underflows, 1)
			continue
		}
		e.pool.release(s)
		s = next
	}
}
