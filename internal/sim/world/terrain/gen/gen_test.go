package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/terrain"
)

func TestGenerateDeterministic(t *testing.T) {
	g := Generator{Seed: 1337}
	var a, b terrain.Chunk
	g.Generate(&a, -3, 7)
	g.Generate(&b, -3, 7)
	require.Equal(t, a.Blocks, b.Blocks)

	var c terrain.Chunk
	g.Generate(&c, 40, -12)
	assert.NotEqual(t, a.Blocks, c.Blocks)
}

func TestGenerateFillsEveryColumnFromBedrock(t *testing.T) {
	var c terrain.Chunk
	Generator{Seed: 9}.Generate(&c, 2, 2)
	for x := 0; x < terrain.ChunkX; x++ {
		for z := 0; z < terrain.ChunkZ; z++ {
			assert.NotEqual(t, block.Empty, c.Get(x, 0, z), "column (%d,%d)", x, z)
			// Nothing below sea level is air.
			for y := 0; y < WaterLevel; y++ {
				require.NotEqual(t, block.Empty, c.Get(x, y, z), "air at (%d,%d,%d)", x, y, z)
			}
		}
	}
}

func TestValueNoiseRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		v := value(5, float64(i)*0.37, float64(i)*-0.91)
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.InDelta(t, lattice(5, 3, 4), value(5, 3, 4), 1e-12)
}
