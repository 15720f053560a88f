package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumCulling(t *testing.T) {
	cam := NewPerspective(mgl32.Vec3{0, 0, 0}, 0, 0, mgl32.DegToRad(90), 1, 1, 100)
	f := cam.Frustum()

	tests := []struct {
		name     string
		min, max mgl32.Vec3
		expected bool
	}{
		{"inside", mgl32.Vec3{-1, -1, -10}, mgl32.Vec3{1, 1, -5}, true},
		{"left", mgl32.Vec3{-20, -1, -10}, mgl32.Vec3{-15, 1, -5}, false},
		{"right", mgl32.Vec3{15, -1, -10}, mgl32.Vec3{20, 1, -5}, false},
		{"behind", mgl32.Vec3{-1, -1, 2}, mgl32.Vec3{1, 1, 5}, false},
		{"beyond far", mgl32.Vec3{-1, -1, -200}, mgl32.Vec3{1, 1, -150}, false},
		{"above", mgl32.Vec3{-1, 30, -10}, mgl32.Vec3{1, 40, -5}, false},
		{"straddles left plane", mgl32.Vec3{-12, -1, -10}, mgl32.Vec3{-8, 1, -5}, true},
		{"contains eye", mgl32.Vec3{-5, -5, -5}, mgl32.Vec3{5, 5, 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Visible(tt.min, tt.max))
		})
	}
}

func TestYawTurnsView(t *testing.T) {
	// Looking down +x after a quarter turn.
	cam := NewPerspective(mgl32.Vec3{0, 80, 0}, mgl32.DegToRad(90), 0, mgl32.DegToRad(60), 16.0/9.0, 0.1, 500)
	assert.InDelta(t, 1, cam.Forward().X(), 1e-5)
	f := cam.Frustum()
	chunk := func(x, z float32) bool {
		return f.Visible(mgl32.Vec3{x, 0, z}, mgl32.Vec3{x + 16, 256, z + 16})
	}
	assert.True(t, chunk(32, -8))
	assert.False(t, chunk(-64, -8))
	assert.False(t, chunk(-8, -200))
}

func TestPlanesNormalized(t *testing.T) {
	f := NewPerspective(mgl32.Vec3{3, 4, 5}, 1, 0.3, 1, 1.5, 0.5, 50).Frustum()
	for _, p := range f {
		assert.InDelta(t, 1, p.Vec3().Len(), 1e-4)
	}
}
