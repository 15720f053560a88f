// Package gpu describes the graphics-device capabilities the streaming world
// consumes. Handles are opaque; the zero value is an invalid handle.
package gpu

import "github.com/gogpu/gputypes"

// BufferID is a device-resident buffer (vertex or index).
type BufferID uint64

// TransferBufferID is a host-visible upload buffer.
type TransferBufferID uint64

// Copy uploads Size bytes from the start of Src into the start of Dst.
type Copy struct {
	Src  TransferBufferID
	Dst  BufferID
	Size uint32
}

// Device allocates buffers and submits uploads. Implementations must allow
// concurrent calls on distinct resources.
type Device interface {
	CreateTransferBuffer(size uint32) (TransferBufferID, error)
	// MapTransferBuffer exposes the buffer contents as 32-bit words. With
	// cycle set, contents from a previous upload may be discarded.
	MapTransferBuffer(tb TransferBufferID, cycle bool) ([]uint32, error)
	UnmapTransferBuffer(tb TransferBufferID)
	ReleaseTransferBuffer(tb TransferBufferID)

	CreateBuffer(usage gputypes.BufferUsage, size uint32) (BufferID, error)
	ReleaseBuffer(b BufferID)

	// Upload records one copy pass containing every copy and submits it.
	Upload(copies ...Copy) error
}

// RenderPass is the subset of a render pass the world issues draws into.
type RenderPass interface {
	BindIndexBuffer(b BufferID, format gputypes.IndexFormat)
	BindVertexBuffer(slot uint32, b BufferID)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// CommandBuffer carries per-draw uniforms.
type CommandBuffer interface {
	PushVertexUniform(slot uint32, data []byte)
}

const (
	VertexUsage   = gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	IndexUsage    = gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst
	IndexFormat32 = gputypes.IndexFormatUint32
)
