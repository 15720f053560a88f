package memgpu

import (
	"encoding/binary"

	"github.com/gogpu/gputypes"

	"voxelstream.ai/internal/gpu"
)

// Draw is one recorded indexed draw with the uniform pushed before it.
type Draw struct {
	Vertex  gpu.BufferID
	Indices uint32
	Origin  [3]int32
}

// Pass records binds and draws. It implements gpu.RenderPass and
// gpu.CommandBuffer. Not safe for concurrent use.
type Pass struct {
	Index       gpu.BufferID
	IndexFormat gputypes.IndexFormat
	Draws       []Draw

	vertex  gpu.BufferID
	uniform [3]int32
}

func (p *Pass) BindIndexBuffer(b gpu.BufferID, format gputypes.IndexFormat) {
	p.Index = b
	p.IndexFormat = format
}

func (p *Pass) BindVertexBuffer(slot uint32, b gpu.BufferID) {
	if slot == 0 {
		p.vertex = b
	}
}

func (p *Pass) PushVertexUniform(slot uint32, data []byte) {
	if slot != 0 || len(data) < 12 {
		return
	}
	for i := range p.uniform {
		p.uniform[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
}

func (p *Pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Draws = append(p.Draws, Draw{Vertex: p.vertex, Indices: indexCount, Origin: p.uniform})
}
