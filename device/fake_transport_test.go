// Copyright 2021 Mark Siner. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"encoding/binary"
	"sync"
)

// fakeTransport is an in-memory Transport backing registers in a map,
// for tests that exercise Device without real hardware.
type fakeTransport struct {
	mu     sync.Mutex
	regs   map[uint16]uint32
	bulk   [][]byte
	onCtl  func(reg uint16) error
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{regs: make(map[uint16]uint32)}
}

func (f *fakeTransport) ControlRead(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCtl != nil {
		if err := f.onCtl(index); err != nil {
			return 0, err
		}
	}
	binary.LittleEndian.PutUint32(buf, f.regs[index])
	return len(buf), nil
}

func (f *fakeTransport) ControlWrite(ctx context.Context, request uint8, value, index uint16, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onCtl != nil {
		if err := f.onCtl(index); err != nil {
			return 0, err
		}
	}
	f.regs[index] = binary.LittleEndian.Uint32(buf)
	return len(buf), nil
}

func (f *fakeTransport) BulkWrite(ctx context.Context, buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.bulk = append(f.bulk, cp)
	return len(buf), nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) reg(addr uint16) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[addr]
}

func (f *fakeTransport) setReg(addr uint16, val uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regs[addr] = val
}
