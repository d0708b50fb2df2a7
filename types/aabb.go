package types

import "math"

// An axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// Create an inverted-extent box suitable for accumulating points or boxes.
func NewAABB() AABB {
	return AABB{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Grow the box to include a point.
func (b *AABB) Include(p Vec3) {
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// Grow the box to include another box.
func (b *AABB) Union(o AABB) {
	b.Min = MinVec3(b.Min, o.Min)
	b.Max = MaxVec3(b.Max, o.Max)
}

// Check whether the box has a valid (non-inverted) extent.
func (b AABB) Valid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Check whether two boxes overlap.
func (b AABB) Overlaps(o AABB) bool {
	if o.Max[0] < b.Min[0] || o.Min[0] > b.Max[0] {
		return false
	}
	if o.Max[1] < b.Min[1] || o.Min[1] > b.Max[1] {
		return false
	}
	if o.Max[2] < b.Min[2] || o.Min[2] > b.Max[2] {
		return false
	}
	return true
}

// Get the surface area of the box.
func (b AABB) SurfaceArea() float32 {
	side := b.Max.Sub(b.Min)
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Get corner i of the box. Bit k of the index selects the min (0) or
// max (1) extent on axis k, so corner 0 is Min and corner 7 is Max.
func (b AABB) Corner(i int) Vec3 {
	out := b.Min
	if i&1 != 0 {
		out[0] = b.Max[0]
	}
	if i&2 != 0 {
		out[1] = b.Max[1]
	}
	if i&4 != 0 {
		out[2] = b.Max[2]
	}
	return out
}

// Intersect a ray against the box using the slab method. Returns the
// parametric interval the ray spends inside the box; the interval is not
// clipped against the ray's own [Mint, Maxt].
func (b AABB) IntersectRay(r *Ray) (mint, maxt float32, hit bool) {
	mint = float32(math.Inf(-1))
	maxt = float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		t1 := (b.Min[axis] - r.Origin[axis]) * r.DRcp[axis]
		t2 := (b.Max[axis] - r.Origin[axis]) * r.DRcp[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > mint {
			mint = t1
		}
		if t2 < maxt {
			maxt = t2
		}
		if mint > maxt {
			return 0, 0, false
		}
	}
	return mint, maxt, true
}
