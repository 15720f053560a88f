package mathx

import "sort"

// FloorDiv rounds toward negative infinity. b must be positive.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Mod returns a floor-mod in [0, b). b must be positive.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 is a stable 64-bit hash of a seeded 2D lattice point.
func Hash2(seed int64, x, z int) uint64 {
	ux := uint64(uint32(int32(x)))
	uz := uint64(uint32(int32(z)))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Point2 is an integer (x, z) pair.
type Point2 struct {
	X, Z int
}

// Window lists every point of a w×d window in x-major order.
func Window(w, d int) []Point2 {
	out := make([]Point2, 0, w*d)
	for x := 0; x < w; x++ {
		for z := 0; z < d; z++ {
			out = append(out, Point2{X: x, Z: z})
		}
	}
	return out
}

// SortByDistance orders points nearest-first by squared distance to (cx, cz).
// Equal distances keep their input order.
func SortByDistance(points []Point2, cx, cz int) {
	dist := func(p Point2) int {
		dx := p.X - cx
		dz := p.Z - cz
		return dx*dx + dz*dz
	}
	sort.SliceStable(points, func(i, j int) bool {
		return dist(points[i]) < dist(points[j])
	})
}
