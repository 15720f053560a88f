package gen

import (
	"math"

	"voxelstream.ai/internal/sim/block"
	"voxelstream.ai/internal/sim/world/terrain"
)

const (
	WaterLevel = 30
	CloudLevel = 155
)

var flowers = [...]block.ID{block.Bluebell, block.Dandelion, block.Lavender, block.Rose}

// Generator fills chunk columns from world coordinates. It is pure: the same
// seed and coordinates always produce the same blocks, and it is safe for
// concurrent use.
type Generator struct {
	Seed int64
}

func (g Generator) Generate(c *terrain.Chunk, cx, cz int) {
	for a := 0; a < terrain.ChunkX; a++ {
		for b := 0; b < terrain.ChunkZ; b++ {
			g.column(c, a, b, float64(cx*terrain.ChunkX+a), float64(cz*terrain.ChunkZ+b))
		}
	}
}

func (g Generator) column(c *terrain.Chunk, a, b int, s, t float64) {
	low := false
	grass := false

	height := fbm(g.Seed, s*0.005, t*0.005, 2, 0.5, 6) * 50
	height = math.Pow(math.Max(height, 0), 1.3) + 30
	height = math.Min(math.Max(height, 0), terrain.ChunkY-1)
	if height < 40 {
		height += fbm(g.Seed+1, -s*0.01, t*0.01, 2, 0.5, 6) * 12
		low = true
	}

	biome := fbm(g.Seed+2, s*0.2, t*0.2, 2, 0.5, 6)
	var top, bottom block.ID
	if height+biome < 31 {
		top, bottom = block.Sand, block.Sand
	} else {
		biome = math.Min(math.Max(biome*8, -5), 5)
		switch {
		case height+biome < 61:
			top, bottom = block.Grass, block.Dirt
			grass = true
		case height+biome < 116:
			top, bottom = block.Stone, block.Stone
		default:
			top, bottom = block.Snow, block.Stone
		}
	}

	y := 0
	for ; float64(y) < height; y++ {
		c.SetBlock(a, y, b, bottom)
	}
	c.SetBlock(a, y, b, top)
	for ; y < WaterLevel; y++ {
		c.SetBlock(a, y, b, block.Water)
	}

	if low && grass {
		g.plant(c, a, b, y, s, t)
	}
	if height > 130 {
		return
	}

	cloud := turbulence(g.Seed+4, s*0.015, t*0.015, 2, 0.5, 6)
	scale := -1
	switch {
	case cloud > 0.9:
		scale = 2
	case cloud > 0.7:
		scale = 1
	case cloud > 0.6:
		scale = 0
	}
	for dy := -scale; dy <= scale; dy++ {
		c.SetBlock(a, CloudLevel-dy, b, block.Cloud)
	}
}

// plant places a tree, bush or flower on top of the surface block at y.
// Trees stay two blocks away from the chunk edge so their leaves never
// cross into a neighbor.
func (g Generator) plant(c *terrain.Chunk, a, b, y int, s, t float64) {
	p := fbm(g.Seed+3, s*0.2, t*0.2, 2, 0.5, 3)*0.5 + 0.5
	switch {
	case p > 0.8 && a > 2 && a < terrain.ChunkX-2 && b > 2 && b < terrain.ChunkZ-2:
		trunk := 3 + int(p*2)
		for dy := 0; dy < trunk; dy++ {
			c.SetBlock(a, y+dy+1, b, block.Log)
		}
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				for dy := 0; dy < 2; dy++ {
					if dx != 0 || dz != 0 || dy != 0 {
						c.SetBlock(a+dx, y+trunk+dy, b+dz, block.Leaves)
					}
				}
			}
		}
	case p > 0.55:
		c.SetBlock(a, y+1, b, block.Bush)
	case p > 0.52:
		i := max(int(p*1000)%len(flowers), 0)
		c.SetBlock(a, y+1, b, flowers[i])
	}
}
