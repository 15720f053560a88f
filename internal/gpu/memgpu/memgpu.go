// Package memgpu is an in-process gpu.Device. It keeps every buffer in host
// memory so headless runs and tests can inspect uploaded contents.
package memgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"voxelstream.ai/internal/gpu"
)

// Op names a fallible device operation for failure injection.
type Op int

const (
	OpCreateTransfer Op = iota
	OpMapTransfer
	OpCreateBuffer
	OpUpload
	opCount
)

var ErrInjected = errors.New("memgpu: injected failure")

type transfer struct {
	words  []uint32
	mapped bool
}

type buffer struct {
	usage gputypes.BufferUsage
	words []uint32
}

// Device is safe for concurrent use.
type Device struct {
	mu        sync.Mutex
	next      uint64
	transfers map[gpu.TransferBufferID]*transfer
	buffers   map[gpu.BufferID]*buffer
	fail      [opCount]int
	uploads   int
}

func New() *Device {
	return &Device{
		transfers: map[gpu.TransferBufferID]*transfer{},
		buffers:   map[gpu.BufferID]*buffer{},
	}
}

// FailNext makes the next n calls of op return ErrInjected.
func (d *Device) FailNext(op Op, n int) {
	d.mu.Lock()
	d.fail[op] = n
	d.mu.Unlock()
}

func (d *Device) injectedLocked(op Op) bool {
	if d.fail[op] > 0 {
		d.fail[op]--
		return true
	}
	return false
}

func (d *Device) CreateTransferBuffer(size uint32) (gpu.TransferBufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.injectedLocked(OpCreateTransfer) {
		return 0, ErrInjected
	}
	if size == 0 || size%4 != 0 {
		return 0, fmt.Errorf("memgpu: transfer buffer size %d", size)
	}
	d.next++
	id := gpu.TransferBufferID(d.next)
	d.transfers[id] = &transfer{words: make([]uint32, size/4)}
	return id, nil
}

func (d *Device) MapTransferBuffer(tb gpu.TransferBufferID, cycle bool) ([]uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.injectedLocked(OpMapTransfer) {
		return nil, ErrInjected
	}
	t, ok := d.transfers[tb]
	if !ok {
		return nil, fmt.Errorf("memgpu: unknown transfer buffer %d", tb)
	}
	if t.mapped {
		return nil, fmt.Errorf("memgpu: transfer buffer %d already mapped", tb)
	}
	t.mapped = true
	return t.words, nil
}

func (d *Device) UnmapTransferBuffer(tb gpu.TransferBufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.transfers[tb]; ok {
		t.mapped = false
	}
}

func (d *Device) ReleaseTransferBuffer(tb gpu.TransferBufferID) {
	d.mu.Lock()
	delete(d.transfers, tb)
	d.mu.Unlock()
}

func (d *Device) CreateBuffer(usage gputypes.BufferUsage, size uint32) (gpu.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.injectedLocked(OpCreateBuffer) {
		return 0, ErrInjected
	}
	if size == 0 || size%4 != 0 {
		return 0, fmt.Errorf("memgpu: buffer size %d", size)
	}
	d.next++
	id := gpu.BufferID(d.next)
	d.buffers[id] = &buffer{usage: usage, words: make([]uint32, size/4)}
	return id, nil
}

func (d *Device) ReleaseBuffer(b gpu.BufferID) {
	d.mu.Lock()
	delete(d.buffers, b)
	d.mu.Unlock()
}

func (d *Device) Upload(copies ...gpu.Copy) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.injectedLocked(OpUpload) {
		return ErrInjected
	}
	for _, c := range copies {
		src, ok := d.transfers[c.Src]
		if !ok {
			return fmt.Errorf("memgpu: unknown transfer buffer %d", c.Src)
		}
		dst, ok := d.buffers[c.Dst]
		if !ok {
			return fmt.Errorf("memgpu: unknown buffer %d", c.Dst)
		}
		if src.mapped {
			return fmt.Errorf("memgpu: transfer buffer %d is mapped", c.Src)
		}
		n := int(c.Size / 4)
		if n > len(src.words) || n > len(dst.words) {
			return fmt.Errorf("memgpu: copy of %d bytes overflows %d->%d", c.Size, c.Src, c.Dst)
		}
		copy(dst.words[:n], src.words[:n])
	}
	d.uploads++
	return nil
}

// Contents returns a copy of a device buffer.
func (d *Device) Contents(b gpu.BufferID) []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[b]
	if !ok {
		return nil
	}
	return append([]uint32(nil), buf.words...)
}

// Usage reports the usage flags a buffer was created with.
func (d *Device) Usage(b gpu.BufferID) gputypes.BufferUsage {
	d.mu.Lock()
	defer d.mu.Unlock()
	if buf, ok := d.buffers[b]; ok {
		return buf.usage
	}
	return 0
}

// Live reports how many transfer and device buffers are allocated.
func (d *Device) Live() (transfers, buffers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transfers), len(d.buffers)
}

func (d *Device) Uploads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.uploads
}
