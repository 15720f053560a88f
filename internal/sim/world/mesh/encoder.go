package mesh

import (
	"fmt"

	"voxelstream.ai/internal/gpu"
	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/terrain"
)

// Scratch is a worker's reusable upload space, one transfer buffer per
// bucket. Capacity counts quads.
type Scratch struct {
	Transfer [terrain.Buckets]gpu.TransferBufferID
	Capacity [terrain.Buckets]uint32
}

func (s *Scratch) Release(dev gpu.Device) {
	for b := range s.Transfer {
		if s.Transfer[b] != 0 {
			dev.ReleaseTransferBuffer(s.Transfer[b])
		}
		s.Transfer[b] = 0
		s.Capacity[b] = 0
	}
}

type Encoder struct {
	Blocks *block.Catalog
}

func faceOf(d terrain.Direction) block.Face {
	switch d {
	case terrain.Up:
		return block.Top
	case terrain.Down:
		return block.Bottom
	default:
		return block.Side
	}
}

func (e *Encoder) faceVertex(id block.ID, x, y, z int, d terrain.Direction, i int) uint32 {
	p := facePositions[d][i]
	uv := faceUVs[d][i]
	u, v := e.Blocks.Atlas(id, faceOf(d))
	return Pack(Vertex{
		X:         x + p[0],
		Y:         y + p[1],
		Z:         z + p[2],
		U:         u + uv[0],
		V:         v + uv[1],
		Direction: d,
		Shadow:    e.Blocks.Shadow(id),
		Shadowed:  e.Blocks.Shadowed(id),
	})
}

func (e *Encoder) spriteVertex(id block.ID, x, y, z, q, i int) uint32 {
	p := spritePositions[q][i]
	uv := spriteUVs[q][i]
	u, v := e.Blocks.Atlas(id, block.Side)
	return Pack(Vertex{
		X:         x + p[0],
		Y:         y + p[1],
		Z:         z + p[2],
		U:         u + uv[0],
		V:         v + uv[1],
		Direction: terrain.Up,
		Shadow:    e.Blocks.Shadow(id),
		Shadowed:  e.Blocks.Shadowed(id),
	})
}

// visible reports whether the face of a toward b must be drawn.
func (e *Encoder) visible(a, b block.ID) bool {
	if b == block.Empty || e.Blocks.Sprite(b) {
		return true
	}
	return e.Blocks.Opaque(a) && !e.Blocks.Opaque(b)
}

func (e *Encoder) bucket(id block.ID) terrain.Bucket {
	if e.Blocks.Opaque(id) {
		return terrain.Opaque
	}
	return terrain.Transparent
}

// adjacent returns the block one step from (x,y,z) in direction d. Lateral
// steps past the chunk edge read the neighbor chunk; anything else outside
// the chunk is empty.
func adjacent(c *terrain.Chunk, nb *[terrain.Neighbors]*terrain.Chunk, x, y, z int, d terrain.Direction) block.ID {
	o := terrain.Offsets[d]
	s, t, p := x+o[0], y+o[1], z+o[2]
	if terrain.In(s, t, p) {
		return c.Blocks[s][t][p]
	}
	if d < terrain.Lateral && nb[d] != nil && t >= 0 && t < terrain.ChunkY {
		s, t, p = terrain.Wrap(s, t, p)
		return nb[d].Blocks[s][t][p]
	}
	return block.Empty
}

// fill writes quads into data and returns the quads each bucket needs.
// Quads past a bucket's capacity are counted but not written.
func (e *Encoder) fill(c *terrain.Chunk, nb *[terrain.Neighbors]*terrain.Chunk, data *[terrain.Buckets][]uint32, capacity [terrain.Buckets]uint32) [terrain.Buckets]uint32 {
	var sizes [terrain.Buckets]uint32
	for x := 0; x < terrain.ChunkX; x++ {
		for y := 0; y < terrain.ChunkY; y++ {
			for z := 0; z < terrain.ChunkZ; z++ {
				a := c.Blocks[x][y][z]
				if a == block.Empty {
					continue
				}
				b := e.bucket(a)
				if e.Blocks.Sprite(a) {
					sizes[b] += spriteQuads
					if sizes[b] > capacity[b] {
						continue
					}
					for q := 0; q < spriteQuads; q++ {
						for i := 0; i < 4; i++ {
							j := sizes[b]*4 - uint32(4*(q+1)) + uint32(i)
							data[b][j] = e.spriteVertex(a, x, y, z, q, i)
						}
					}
					continue
				}
				for d := terrain.Direction(0); d < terrain.Directions; d++ {
					if y == 0 && d == terrain.Down {
						continue
					}
					if !e.visible(a, adjacent(c, nb, x, y, z, d)) {
						continue
					}
					sizes[b]++
					if sizes[b] > capacity[b] {
						continue
					}
					for i := 0; i < 4; i++ {
						data[b][sizes[b]*4-4+uint32(i)] = e.faceVertex(a, x, y, z, d, i)
					}
				}
			}
		}
	}
	return sizes
}

func mapAll(dev gpu.Device, s *Scratch, want func(b terrain.Bucket) bool) ([terrain.Buckets][]uint32, error) {
	var data [terrain.Buckets][]uint32
	for b := terrain.Bucket(0); b < terrain.Buckets; b++ {
		if s.Transfer[b] == 0 || !want(b) {
			continue
		}
		words, err := dev.MapTransferBuffer(s.Transfer[b], true)
		if err != nil {
			unmapAll(dev, s, &data)
			return data, fmt.Errorf("map %s transfer buffer: %w", b, err)
		}
		if uint32(len(words)) < s.Capacity[b]*4 {
			dev.UnmapTransferBuffer(s.Transfer[b])
			unmapAll(dev, s, &data)
			return data, fmt.Errorf("map %s transfer buffer: %d words for %d quads", b, len(words), s.Capacity[b])
		}
		data[b] = words
	}
	return data, nil
}

func unmapAll(dev gpu.Device, s *Scratch, data *[terrain.Buckets][]uint32) {
	for b := range data {
		if data[b] != nil {
			dev.UnmapTransferBuffer(s.Transfer[b])
			data[b] = nil
		}
	}
}

// Build meshes c into its two vertex buffers. The first pass writes into
// the worker's current transfer buffers; if a bucket overflows, its
// transfer and vertex buffers are reallocated to exactly the required size
// and the fill runs again. On error the chunk keeps whatever buffers it had
// and must be rebuilt.
func (e *Encoder) Build(dev gpu.Device, c *terrain.Chunk, nb [terrain.Neighbors]*terrain.Chunk, s *Scratch) error {
	all := func(terrain.Bucket) bool { return true }
	data, err := mapAll(dev, s, all)
	if err != nil {
		return err
	}
	sizes := e.fill(c, &nb, &data, s.Capacity)
	unmapAll(dev, s, &data)
	for b := range sizes {
		c.Meshes[b].Size = sizes[b]
	}
	if sizes == ([terrain.Buckets]uint32{}) {
		return nil
	}

	grow := false
	for b := range sizes {
		if sizes[b] > s.Capacity[b] {
			grow = true
		}
	}
	if grow {
		for b := terrain.Bucket(0); b < terrain.Buckets; b++ {
			if sizes[b] <= s.Capacity[b] {
				continue
			}
			if s.Transfer[b] != 0 {
				dev.ReleaseTransferBuffer(s.Transfer[b])
				s.Transfer[b] = 0
				s.Capacity[b] = 0
			}
			tb, err := dev.CreateTransferBuffer(sizes[b] * QuadBytes)
			if err != nil {
				return fmt.Errorf("create %s transfer buffer: %w", b, err)
			}
			s.Transfer[b] = tb
			s.Capacity[b] = sizes[b]
		}
		data, err = mapAll(dev, s, func(b terrain.Bucket) bool { return sizes[b] > 0 })
		if err != nil {
			return err
		}
		again := e.fill(c, &nb, &data, s.Capacity)
		unmapAll(dev, s, &data)
		if again != sizes {
			panic(fmt.Sprintf("mesh: refill produced %v quads, first pass %v", again, sizes))
		}
	}

	var copies []gpu.Copy
	for b := terrain.Bucket(0); b < terrain.Buckets; b++ {
		m := &c.Meshes[b]
		if sizes[b] == 0 {
			continue
		}
		if sizes[b] > m.Capacity {
			if m.Buffer != 0 {
				dev.ReleaseBuffer(m.Buffer)
				m.Buffer = 0
				m.Capacity = 0
			}
			buf, err := dev.CreateBuffer(gpu.VertexUsage, sizes[b]*QuadBytes)
			if err != nil {
				return fmt.Errorf("create %s vertex buffer: %w", b, err)
			}
			m.Buffer = buf
			m.Capacity = sizes[b]
		}
		copies = append(copies, gpu.Copy{Src: s.Transfer[b], Dst: m.Buffer, Size: sizes[b] * QuadBytes})
	}
	if err := dev.Upload(copies...); err != nil {
		return fmt.Errorf("upload chunk mesh: %w", err)
	}
	return nil
}
