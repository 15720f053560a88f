package mesh

import "voxelstream.ai/internal/sim/world/terrain"

// Corner offsets and atlas uv offsets of each face, indexed by direction.
var facePositions = [terrain.Directions][4][3]int{
	terrain.North: {{0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1}},
	terrain.South: {{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	terrain.East:  {{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1}},
	terrain.West:  {{0, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 1}},
	terrain.Up:    {{0, 1, 0}, {1, 1, 0}, {0, 1, 1}, {1, 1, 1}},
	terrain.Down:  {{0, 0, 0}, {0, 0, 1}, {1, 0, 0}, {1, 0, 1}},
}

var faceUVs = [terrain.Directions][4][2]int{
	terrain.North: {{1, 1}, {1, 0}, {0, 1}, {0, 0}},
	terrain.South: {{1, 1}, {0, 1}, {1, 0}, {0, 0}},
	terrain.East:  {{1, 1}, {0, 1}, {1, 0}, {0, 0}},
	terrain.West:  {{1, 1}, {1, 0}, {0, 1}, {0, 0}},
	terrain.Up:    {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	terrain.Down:  {{0, 0}, {0, 1}, {1, 0}, {1, 1}},
}

// Sprites are two crossed diagonal planes, each drawn from both sides.
const spriteQuads = 4

var spritePositions = [spriteQuads][4][3]int{
	{{0, 0, 0}, {0, 1, 0}, {1, 0, 1}, {1, 1, 1}},
	{{0, 0, 0}, {1, 0, 1}, {0, 1, 0}, {1, 1, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 1}, {1, 1, 0}},
	{{0, 0, 1}, {0, 1, 1}, {1, 0, 0}, {1, 1, 0}},
}

var spriteUVs = [spriteQuads][4][2]int{
	{{1, 1}, {1, 0}, {0, 1}, {0, 0}},
	{{1, 1}, {0, 1}, {1, 0}, {0, 0}},
	{{1, 1}, {0, 1}, {1, 0}, {0, 0}},
	{{1, 1}, {1, 0}, {0, 1}, {0, 0}},
}
