package types

import "github.com/chewxy/math32"

// The default minimum distance for new rays. Traversal queries scale this
// by the ray origin magnitude to suppress self-intersections.
const Epsilon float32 = 1e-4

// A ray with an associated validity interval [Mint, Maxt]. The component
// reciprocals of the direction are precomputed so that box and plane tests
// can use multiplications only.
type Ray struct {
	Origin Vec3
	Dir    Vec3
	DRcp   Vec3

	Mint float32
	Maxt float32
}

// Create a new ray with the default validity interval.
func NewRay(origin, dir Vec3) Ray {
	return NewRayInterval(origin, dir, Epsilon, math32.Inf(1))
}

// Create a new ray with an explicit validity interval.
func NewRayInterval(origin, dir Vec3, mint, maxt float32) Ray {
	return Ray{
		Origin: origin,
		Dir:    dir,
		DRcp:   Vec3{1.0 / dir[0], 1.0 / dir[1], 1.0 / dir[2]},
		Mint:   mint,
		Maxt:   maxt,
	}
}

// Get the point at parametric distance t along the ray.
func (r *Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}
