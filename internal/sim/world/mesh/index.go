package mesh

import (
	"fmt"

	"voxelstream.ai/internal/gpu"
)

// QuadIndices writes the two-triangle index pattern for quads [0, n).
func QuadIndices(dst []uint32, n uint32) {
	for i := uint32(0); i < n; i++ {
		dst[i*6+0] = i*4 + 0
		dst[i*6+1] = i*4 + 1
		dst[i*6+2] = i*4 + 2
		dst[i*6+3] = i*4 + 3
		dst[i*6+4] = i*4 + 2
		dst[i*6+5] = i*4 + 1
	}
}

// BuildIndexBuffer creates an index buffer covering quads quads. Every
// chunk mesh shares it.
func BuildIndexBuffer(dev gpu.Device, quads uint32) (gpu.BufferID, error) {
	if quads == 0 {
		panic("mesh: empty index buffer")
	}
	size := quads * IndexBytes
	tb, err := dev.CreateTransferBuffer(size)
	if err != nil {
		return 0, fmt.Errorf("create index transfer buffer: %w", err)
	}
	defer dev.ReleaseTransferBuffer(tb)

	ibo, err := dev.CreateBuffer(gpu.IndexUsage, size)
	if err != nil {
		return 0, fmt.Errorf("create index buffer: %w", err)
	}
	words, err := dev.MapTransferBuffer(tb, false)
	if err != nil {
		dev.ReleaseBuffer(ibo)
		return 0, fmt.Errorf("map index transfer buffer: %w", err)
	}
	QuadIndices(words, quads)
	dev.UnmapTransferBuffer(tb)
	if err := dev.Upload(gpu.Copy{Src: tb, Dst: ibo, Size: size}); err != nil {
		dev.ReleaseBuffer(ibo)
		return 0, fmt.Errorf("upload index buffer: %w", err)
	}
	return ibo, nil
}
