package gen

import (
	"math"

	"voxelstream.ai/internal/sim/world/logic/mathx"
)

// lattice returns a value in [-1, 1) for an integer lattice point.
func lattice(seed int64, x, z int) float64 {
	return float64(mathx.Hash2(seed, x, z)>>11)/float64(1<<53)*2 - 1
}

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// value is smoothly interpolated lattice noise in [-1, 1].
func value(seed int64, x, z float64) float64 {
	fx, fz := math.Floor(x), math.Floor(z)
	ix, iz := int(fx), int(fz)
	tx, tz := fade(x-fx), fade(z-fz)
	a := lerp(lattice(seed, ix, iz), lattice(seed, ix+1, iz), tx)
	b := lerp(lattice(seed, ix, iz+1), lattice(seed, ix+1, iz+1), tx)
	return lerp(a, b, tz)
}

// fbm sums octaves of value noise without normalizing, so wide octave
// counts can exceed [-1, 1].
func fbm(seed int64, x, z, lacunarity, gain float64, octaves int) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += value(seed+int64(i)*7919, x*freq, z*freq) * amp
		freq *= lacunarity
		amp *= gain
	}
	return sum
}

func turbulence(seed int64, x, z, lacunarity, gain float64, octaves int) float64 {
	sum := 0.0
	freq := 1.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		sum += math.Abs(value(seed+int64(i)*7919, x*freq, z*freq)) * amp
		freq *= lacunarity
		amp *= gain
	}
	return sum
}
