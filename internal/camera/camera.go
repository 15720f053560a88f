// Package camera builds view frustums for chunk culling. World space is
// y-up; yaw 0 looks down -z.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32

	Fov    float32 // vertical, radians
	Aspect float32
	Near   float32
	Far    float32
}

func NewPerspective(eye mgl32.Vec3, yaw, pitch, fov, aspect, near, far float32) *Camera {
	return &Camera{Position: eye, Yaw: yaw, Pitch: pitch, Fov: fov, Aspect: aspect, Near: near, Far: far}
}

func (c *Camera) Forward() mgl32.Vec3 {
	cp := math.Cos(float64(c.Pitch))
	return mgl32.Vec3{
		float32(cp * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-cp * math.Cos(float64(c.Yaw))),
	}
}

func (c *Camera) View() mgl32.Mat4 {
	eye := c.Position
	return mgl32.LookAtV(eye, eye.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

func (c *Camera) Frustum() Frustum {
	return NewFrustum(c.ViewProjection())
}

// Frustum holds six inward-facing planes (Ax+By+Cz+D >= 0 inside) in the
// order left, right, bottom, top, near, far.
type Frustum [6]mgl32.Vec4

// NewFrustum extracts the planes of an OpenGL-style (-1..1 depth)
// view-projection matrix.
func NewFrustum(vp mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	w := row(3)
	f := Frustum{
		w.Add(row(0)),
		w.Sub(row(0)),
		w.Add(row(1)),
		w.Sub(row(1)),
		w.Add(row(2)),
		w.Sub(row(2)),
	}
	for i := range f {
		if n := f[i].Vec3().Len(); n > 0 {
			f[i] = f[i].Mul(1 / n)
		}
	}
	return f
}

// Visible reports whether the box [min, max] is at least partly inside.
// Boxes near a frustum corner may pass even when outside.
func (f Frustum) Visible(min, max mgl32.Vec3) bool {
	for _, p := range f {
		// The corner farthest along the plane normal.
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p[i] > 0 {
				v[i] = max[i]
			} else {
				v[i] = min[i]
			}
		}
		if p.Vec3().Dot(v)+p[3] < 0 {
			return false
		}
	}
	return true
}
