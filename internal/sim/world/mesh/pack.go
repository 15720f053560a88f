package mesh

import (
	"fmt"

	"voxelstream.ai/internal/sim/world/terrain"
)

// Packed vertex layout, least significant bit first.
const (
	XOffset        = 0
	XBits          = 5
	YOffset        = XOffset + XBits
	YBits          = 9
	ZOffset        = YOffset + YBits
	ZBits          = 5
	UOffset        = ZOffset + ZBits
	UBits          = 4
	VOffset        = UOffset + UBits
	VBits          = 4
	DirectionOff   = VOffset + VBits
	DirectionBits  = 3
	ShadowOffset   = DirectionOff + DirectionBits
	ShadowBits     = 1
	ShadowedOffset = ShadowOffset + ShadowBits
	ShadowedBits   = 1

	XMask         = 1<<XBits - 1
	YMask         = 1<<YBits - 1
	ZMask         = 1<<ZBits - 1
	UMask         = 1<<UBits - 1
	VMask         = 1<<VBits - 1
	DirectionMask = 1<<DirectionBits - 1
)

// Every vertex corner of a chunk must be addressable.
var _ = [1]struct{}{}[ShadowedOffset+ShadowedBits-32]
var _ = [XMask - terrain.ChunkX]struct{}{}
var _ = [YMask - terrain.ChunkY]struct{}{}
var _ = [ZMask - terrain.ChunkZ]struct{}{}

// VertexBytes is the size of one packed vertex; a quad is four of them.
const (
	VertexBytes = 4
	QuadBytes   = 4 * VertexBytes
	// IndexBytes is the size of one quad's six 32-bit indices.
	IndexBytes = 6 * 4
)

// Vertex is an unpacked vertex.
type Vertex struct {
	X, Y, Z   int
	U, V      int
	Direction terrain.Direction
	Shadow    bool
	Shadowed  bool
}

// Pack encodes a vertex. A field that does not fit its width is a
// programming error and panics.
func Pack(v Vertex) uint32 {
	if v.X < 0 || v.X > XMask || v.Y < 0 || v.Y > YMask || v.Z < 0 || v.Z > ZMask {
		panic(fmt.Sprintf("mesh: position (%d,%d,%d) out of range", v.X, v.Y, v.Z))
	}
	if v.U < 0 || v.U > UMask || v.V < 0 || v.V > VMask {
		panic(fmt.Sprintf("mesh: uv (%d,%d) out of range", v.U, v.V))
	}
	if v.Direction < 0 || v.Direction > DirectionMask {
		panic(fmt.Sprintf("mesh: direction %d out of range", v.Direction))
	}
	w := uint32(v.X) << XOffset
	w |= uint32(v.Y) << YOffset
	w |= uint32(v.Z) << ZOffset
	w |= uint32(v.U) << UOffset
	w |= uint32(v.V) << VOffset
	w |= uint32(v.Direction) << DirectionOff
	if v.Shadow {
		w |= 1 << ShadowOffset
	}
	if v.Shadowed {
		w |= 1 << ShadowedOffset
	}
	return w
}

func Unpack(w uint32) Vertex {
	return Vertex{
		X:         int(w >> XOffset & XMask),
		Y:         int(w >> YOffset & YMask),
		Z:         int(w >> ZOffset & ZMask),
		U:         int(w >> UOffset & UMask),
		V:         int(w >> VOffset & VMask),
		Direction: terrain.Direction(w >> DirectionOff & DirectionMask),
		Shadow:    w>>ShadowOffset&1 == 1,
		Shadowed:  w>>ShadowedOffset&1 == 1,
	}
}
