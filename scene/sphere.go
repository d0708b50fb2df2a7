package scene

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/types"
)

// A sphere. Spheres do not expand into triangles; the kd-tree treats them
// as opaque primitives and delegates intersections to this implementation.
type Sphere struct {
	Origin types.Vec3
	Radius float32
}

// Create a new sphere.
func NewSphere(origin types.Vec3, radius float32) *Sphere {
	return &Sphere{Origin: origin, Radius: radius}
}

func (s *Sphere) BBox() types.AABB {
	r := types.Vec3{s.Radius, s.Radius, s.Radius}
	return types.AABB{Min: s.Origin.Sub(r), Max: s.Origin.Add(r)}
}

func (s *Sphere) Compound() bool {
	return false
}

func (s *Sphere) RayIntersect(r *types.Ray, mint, maxt float32) (float32, bool) {
	oc := r.Origin.Sub(s.Origin)
	a := r.Dir.Dot(r.Dir)
	b := 2.0 * oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}

	sqrtDisc := math32.Sqrt(disc)
	t := (-b - sqrtDisc) / (2 * a)
	if t < mint {
		t = (-b + sqrtDisc) / (2 * a)
	}
	if t < mint || t > maxt {
		return 0, false
	}
	return t, true
}

func (s *Sphere) NormalUV(r *types.Ray, t float32) (types.Vec3, types.Vec2) {
	n := r.At(t).Sub(s.Origin).Normalize()
	u := 0.5 + math32.Atan2(n[2], n[0])/(2*math32.Pi)
	v := 0.5 - math32.Asin(n[1])/math32.Pi
	return n, types.Vec2{u, v}
}
