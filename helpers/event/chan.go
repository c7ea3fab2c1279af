// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package event provides a non-blocking, channel-based way to observe
// streaming notifications asynchronously to the goroutine that detects
// them. The stream engine sends only a device-loss notification;
// underflows are reported through FillRequest and Engine.Underflows.
package event

import "errors"

// Msg carries one notification. The stream engine sends a single Msg
// with DeviceLost set, after which it has stopped and sends nothing
// further; it does not set Underflows.
type Msg struct {
	DeviceLost bool
	Underflows uint64
}

// Chan is a Callback handler that sends a Msg for each call, letting a
// caller handle notifications asynchronously to the streaming engine's
// internal goroutines.
type Chan struct {
	C    <-chan Msg
	c    chan<- Msg
	done chan struct{}
}

// NewChan creates a Chan with the given channel depth. Since Callback
// may be invoked from a goroutine that must never block, it will not
// block on send: if the channel is full or there is no receiver ready,
// the message is dropped. A depth of 0 drops any message that arrives
// while nothing is receiving.
func NewChan(depth uint) *Chan {
	c := make(chan Msg, depth)
	return &Chan{
		C:    c,
		c:    c,
		done: make(chan struct{}),
	}
}

// Close stops any further messages from being sent on C. The
// underlying channel is not closed until the next call to Callback.
func (e *Chan) Close() error {
	select {
	case <-e.done:
		return errors.New("already closed")
	default:
		close(e.done)
		return nil
	}
}

// Callback delivers msg on C, or drops it if C is closed, full, or has
// no ready receiver.
func (e *Chan) Callback(msg Msg) {
	select {
	case <-e.done:
		if e.c != nil {
			close(e.c)
			e.c = nil
		}
		return
	default:
	}

	select {
	case e.c <- msg:
	default:
	}
}
