package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/logic/mathx"
)

func markLoaded(g *Grid) {
	g.Each(func(x, z int, c *Chunk) {
		c.Skip = false
		c.Load = false
		c.Mesh = false
	})
}

func TestGet2MatchesWrapArithmetic(t *testing.T) {
	g := NewGrid(5, 4)
	for _, d := range [][2]int{{0, 0}, {1, 0}, {-3, 2}, {7, -9}, {-1, -1}, {12, 5}} {
		g.Move(d[0], d[1])
		ox, oz := g.Origin()
		for x := ox - 3; x < ox+8; x++ {
			for z := oz - 3; z < oz+8; z++ {
				if !g.In2(x, z) {
					assert.False(t, x >= ox && x < ox+5 && z >= oz && z < oz+4)
					continue
				}
				want := g.slots[mathx.Mod(x, 5)][mathx.Mod(z, 4)]
				require.Same(t, want, g.Get2(x, z), "world (%d,%d) origin (%d,%d)", x, z, ox, oz)
				assert.Same(t, want, g.Get(x-ox, z-oz))
			}
		}
	}
}

func TestMoveRecyclesOnlyChangedSlots(t *testing.T) {
	g := NewGrid(4, 4)
	markLoaded(g)
	g.Each(func(x, z int, c *Chunk) {
		c.Set(0, 1, 0, block.Stone)
	})

	recycled := g.Move(1, -2)
	ox, oz := g.Origin()
	assert.Equal(t, 1, ox)
	assert.Equal(t, -2, oz)

	fresh := map[mathx.Point2]bool{}
	for _, p := range recycled {
		fresh[p] = true
	}
	// Columns x=3 (world 4) and rows z=0,1 (world -2,-1) are new.
	assert.Len(t, recycled, 4+4+4-2)
	g.Each(func(x, z int, c *Chunk) {
		wx, wz := ox+x, oz+z
		isNew := wx >= 4 || wz < 0
		assert.Equal(t, isNew, fresh[mathx.Point2{X: x, Z: z}], "slot (%d,%d)", x, z)
		if isNew {
			assert.True(t, c.Skip && c.Load && c.Mesh)
			assert.Equal(t, block.Empty, c.Get(0, 1, 0))
		} else {
			assert.False(t, c.Skip || c.Load || c.Mesh)
			assert.Equal(t, block.Stone, c.Get(0, 1, 0))
		}
		assert.True(t, c.Valid())
	})
}

func TestMoveZeroIsNoop(t *testing.T) {
	g := NewGrid(3, 3)
	markLoaded(g)
	assert.Empty(t, g.Move(0, 0))
	g.Each(func(x, z int, c *Chunk) {
		assert.False(t, c.Load)
	})
}

func TestMoveLargeJumpRecyclesAll(t *testing.T) {
	g := NewGrid(3, 3)
	markLoaded(g)
	assert.Len(t, g.Move(-40, 100), 9)
}

func TestMoveAndBackKeepsIdentity(t *testing.T) {
	g := NewGrid(4, 4)
	before := g.Get2(2, 2)
	g.Move(1, 1)
	assert.Same(t, before, g.Get2(2, 2))
	g.Move(-1, -1)
	assert.Same(t, before, g.Get2(2, 2))
}

func TestBorderAndNeighbors(t *testing.T) {
	g := NewGrid(4, 4)
	g.Move(10, -3)

	assert.True(t, g.Border(0, 2))
	assert.True(t, g.Border(3, 1))
	assert.True(t, g.Border(1, 0))
	assert.False(t, g.Border(1, 1))
	assert.False(t, g.Border(2, 2))
	assert.False(t, g.Border2(11, -2))

	nb := g.Neighbors(1, 1)
	for i, o := range NeighborOffsets {
		require.NotNil(t, nb[i])
		assert.Same(t, g.Get(1+o[0], 1+o[1]), nb[i])
	}
	edge := g.Neighbors2(10, -3)
	assert.Nil(t, edge[NbWest])
	assert.Nil(t, edge[NbSouth])
	assert.Nil(t, edge[NbSouthWest])
	assert.NotNil(t, edge[NbNorthEast])
	assert.Same(t, g.Get2(11, -3), edge[NbEast])
}

func TestGetOutsidePanics(t *testing.T) {
	g := NewGrid(2, 2)
	assert.Panics(t, func() { g.Get(2, 0) })
	assert.Panics(t, func() { g.Get2(-1, 0) })
}

func TestWrapNegative(t *testing.T) {
	x, y, z := Wrap(-1, 3, ChunkZ)
	assert.Equal(t, ChunkX-1, x)
	assert.Equal(t, 3, y)
	assert.Equal(t, 0, z)
}

func TestResetKeepsBuffers(t *testing.T) {
	c := newChunk()
	c.Meshes[Opaque] = Mesh{Buffer: 7, Size: 3, Capacity: 9}
	c.Set(1, 1, 1, block.Dirt)
	c.Skip, c.Load, c.Mesh = false, false, false
	c.Reset()
	assert.True(t, c.Empty())
	assert.Equal(t, Mesh{Buffer: 7, Size: 0, Capacity: 9}, c.Meshes[Opaque])
	assert.True(t, c.Valid())
	assert.EqualValues(t, 0, c.Meshes[Opaque].Vertices())
}
