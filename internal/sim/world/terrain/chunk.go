package terrain

import (
	"voxelstream.ai/internal/gpu"
	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/logic/mathx"
)

const (
	ChunkX = 16
	ChunkY = 256
	ChunkZ = 16
)

// Direction is a face direction. The first four are lateral.
type Direction int

const (
	North Direction = iota
	South
	East
	West
	Up
	Down
	Directions
)

// Lateral is the number of cardinal (x/z) directions.
const Lateral = 4

// Offsets of each face direction.
var Offsets = [Directions][3]int{
	North: {0, 0, 1},
	South: {0, 0, -1},
	East:  {1, 0, 0},
	West:  {-1, 0, 0},
	Up:    {0, 1, 0},
	Down:  {0, -1, 0},
}

// Neighborhood indices. The first four match the lateral Directions.
const (
	NbNorth = iota
	NbSouth
	NbEast
	NbWest
	NbNorthEast
	NbNorthWest
	NbSouthEast
	NbSouthWest
	Neighbors
)

var NeighborOffsets = [Neighbors][2]int{
	NbNorth:     {0, 1},
	NbSouth:     {0, -1},
	NbEast:      {1, 0},
	NbWest:      {-1, 0},
	NbNorthEast: {1, 1},
	NbNorthWest: {-1, 1},
	NbSouthEast: {1, -1},
	NbSouthWest: {-1, -1},
}

// Bucket selects one of a chunk's two vertex streams.
type Bucket int

const (
	Opaque Bucket = iota
	Transparent
	Buckets
)

func (b Bucket) String() string {
	if b == Opaque {
		return "opaque"
	}
	return "transparent"
}

// Mesh is one bucket's device buffer. Size and Capacity count quads; each
// quad is four packed vertices.
type Mesh struct {
	Buffer   gpu.BufferID
	Size     uint32
	Capacity uint32
}

func (m Mesh) Vertices() uint32 { return m.Size * 4 }

// Chunk is one full-height column of blocks plus its mesh state.
//
// Skip marks a slot that has not joined the window yet, Load marks block
// data that is not generated, Mesh marks stale vertex data. Skip implies
// Load and Mesh.
type Chunk struct {
	Blocks [ChunkX][ChunkY][ChunkZ]block.ID
	Meshes [Buckets]Mesh

	Skip bool
	Load bool
	Mesh bool
}

func newChunk() *Chunk {
	return &Chunk{Skip: true, Load: true, Mesh: true}
}

func (c *Chunk) Get(x, y, z int) block.ID {
	return c.Blocks[x][y][z]
}

func (c *Chunk) Set(x, y, z int, b block.ID) {
	c.Blocks[x][y][z] = b
}

// SetBlock ignores coordinates outside the chunk. Generators and storage
// overlays write through it.
func (c *Chunk) SetBlock(x, y, z int, b block.ID) {
	if !In(x, y, z) {
		return
	}
	c.Blocks[x][y][z] = b
}

// Reset empties the chunk for reuse at a new location. Device buffers and
// their capacities are kept for the next mesh.
func (c *Chunk) Reset() {
	c.Blocks = [ChunkX][ChunkY][ChunkZ]block.ID{}
	for i := range c.Meshes {
		c.Meshes[i].Size = 0
	}
	c.Skip = true
	c.Load = true
	c.Mesh = true
}

func (c *Chunk) Empty() bool {
	for x := range c.Blocks {
		for y := range c.Blocks[x] {
			for z := range c.Blocks[x][y] {
				if c.Blocks[x][y][z] != block.Empty {
					return false
				}
			}
		}
	}
	return true
}

// Valid reports whether the flag invariant holds.
func (c *Chunk) Valid() bool {
	return !c.Skip || (c.Load && c.Mesh)
}

func In(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < ChunkX && y < ChunkY && z < ChunkZ
}

// Wrap maps block coordinates into chunk-local space with floor semantics.
func Wrap(x, y, z int) (int, int, int) {
	return mathx.Mod(x, ChunkX), mathx.Mod(y, ChunkY), mathx.Mod(z, ChunkZ)
}
