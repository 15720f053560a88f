package terrain

import (
	"fmt"

	"voxelstream.ai/internal/sim/world/logic/mathx"
)

// Grid is a toroidal window of chunk columns. The chunk for world chunk
// coordinate (x, z) always lives in physical slot (Mod(x, width), Mod(z, depth)),
// so sliding the window only resets the slots that change meaning.
type Grid struct {
	slots [][]*Chunk
	width int
	depth int
	x, z  int
}

func NewGrid(width, depth int) *Grid {
	if width <= 0 || depth <= 0 {
		panic(fmt.Sprintf("terrain: invalid grid %dx%d", width, depth))
	}
	g := &Grid{width: width, depth: depth, slots: make([][]*Chunk, width)}
	for x := range g.slots {
		g.slots[x] = make([]*Chunk, depth)
		for z := range g.slots[x] {
			g.slots[x][z] = newChunk()
		}
	}
	return g
}

// Origin is the world chunk coordinate of window index (0, 0).
func (g *Grid) Origin() (x, z int) { return g.x, g.z }

func (g *Grid) Size() (width, depth int) { return g.width, g.depth }

// In reports whether a window-relative index lies inside the window.
func (g *Grid) In(x, z int) bool {
	return x >= 0 && z >= 0 && x < g.width && z < g.depth
}

// Get returns the chunk at a window-relative index.
func (g *Grid) Get(x, z int) *Chunk {
	if !g.In(x, z) {
		panic(fmt.Sprintf("terrain: window index (%d,%d) outside %dx%d", x, z, g.width, g.depth))
	}
	return g.slots[mathx.Mod(g.x+x, g.width)][mathx.Mod(g.z+z, g.depth)]
}

func (g *Grid) In2(x, z int) bool {
	return g.In(x-g.x, z-g.z)
}

// Get2 returns the chunk at a world chunk coordinate.
func (g *Grid) Get2(x, z int) *Chunk {
	return g.Get(x-g.x, z-g.z)
}

// Border reports whether any lateral neighbor of a window index falls
// outside the window.
func (g *Grid) Border(x, z int) bool {
	for _, o := range NeighborOffsets {
		if !g.In(x+o[0], z+o[1]) {
			return true
		}
	}
	return false
}

func (g *Grid) Border2(x, z int) bool {
	return g.Border(x-g.x, z-g.z)
}

// Neighbors returns the lateral neighbors of a window index, nil where a
// neighbor falls outside the window.
func (g *Grid) Neighbors(x, z int) [Neighbors]*Chunk {
	var out [Neighbors]*Chunk
	for i, o := range NeighborOffsets {
		a, b := x+o[0], z+o[1]
		if g.In(a, b) {
			out[i] = g.Get(a, b)
		}
	}
	return out
}

func (g *Grid) Neighbors2(x, z int) [Neighbors]*Chunk {
	return g.Neighbors(x-g.x, z-g.z)
}

// Move slides the window by (dx, dz) chunks. Every slot that now represents
// a different world coordinate is reset; their new window-relative indices
// are returned.
func (g *Grid) Move(dx, dz int) []mathx.Point2 {
	if dx == 0 && dz == 0 {
		return nil
	}
	ox, oz := g.x, g.z
	g.x += dx
	g.z += dz

	var out []mathx.Point2
	for x := 0; x < g.width; x++ {
		for z := 0; z < g.depth; z++ {
			wx, wz := g.x+x, g.z+z
			if wx >= ox && wx < ox+g.width && wz >= oz && wz < oz+g.depth {
				continue
			}
			g.Get(x, z).Reset()
			out = append(out, mathx.Point2{X: x, Z: z})
		}
	}
	return out
}

// Each visits every chunk with its window-relative index.
func (g *Grid) Each(fn func(x, z int, c *Chunk)) {
	for x := 0; x < g.width; x++ {
		for z := 0; z < g.depth; z++ {
			fn(x, z, g.Get(x, z))
		}
	}
}
