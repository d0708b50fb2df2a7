package kdtree

import (
	"github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

// Ellipsoid is the constant-path-length locus |p - F1| + |p - F2| = Tau:
// the set of points through which a two-segment path between the focal
// points has total length Tau. Transient rendering samples scene surfaces
// near this locus to build path connections with a prescribed time of
// flight.
type Ellipsoid struct {
	F1  types.Vec3
	F2  types.Vec3
	Tau float32

	aabb types.AABB
}

// Create a new ellipsoid from its focal points and path length. Tau must
// exceed the focal distance or the locus is empty.
func NewEllipsoid(f1, f2 types.Vec3, tau float32) *Ellipsoid {
	if tau <= f2.Sub(f1).Len() {
		return nil
	}

	// Conservative bounds: every locus point is within Tau/2 of the
	// focal midpoint.
	center := f1.Add(f2).Mul(0.5)
	half := types.Vec3{tau / 2, tau / 2, tau / 2}
	return &Ellipsoid{
		F1:  f1,
		F2:  f2,
		Tau: tau,
		aabb: types.AABB{
			Min: center.Sub(half),
			Max: center.Add(half),
		},
	}
}

// Get the (conservative) bounds of the ellipsoid.
func (e *Ellipsoid) BBox() types.AABB {
	return e.aabb
}

// Check whether a point lies strictly inside the ellipsoid.
func (e *Ellipsoid) Inside(p types.Vec3) bool {
	return e.Residual(p) < 0
}

// Get the signed focal-sum residual |p-F1| + |p-F2| - Tau. Negative inside
// the ellipsoid, zero on its surface.
func (e *Ellipsoid) Residual(p types.Vec3) float32 {
	return p.Sub(e.F1).Len() + p.Sub(e.F2).Len() - e.Tau
}

// Test whether the triangle (a, b, c) crosses the ellipsoid surface and
// sample a point on the crossing. The focal-sum residual is convex, so its
// maximum over the triangle sits at a vertex; an edge whose endpoint
// residuals differ in sign therefore crosses the surface and a bisection
// root on it is an exact surface point. Triangles whose residual dips below
// zero only in the interior are reported as misses (an accepted false
// negative). The returned (u, v) are barycentric coordinates of the sample
// with respect to (a, b, c).
func (e *Ellipsoid) IntersectTriangle(a, b, c types.Vec3, sampler Sampler) (u, v float32, hit bool) {
	ra := e.Residual(a)
	rb := e.Residual(b)
	rc := e.Residual(c)

	type edge struct {
		p0, p1 types.Vec3
		r0, r1 float32
		index  int
	}
	var crossing [3]edge
	count := 0
	for _, ed := range [3]edge{
		{a, b, ra, rb, 0},
		{b, c, rb, rc, 1},
		{c, a, rc, ra, 2},
	} {
		if (ed.r0 <= 0) != (ed.r1 <= 0) {
			crossing[count] = ed
			count++
		}
	}
	if count == 0 {
		return 0, 0, false
	}

	pick := 0
	if count > 1 {
		pick = int(sampler.NextIndex(uint32(count)))
	}
	ed := crossing[pick]

	// Bisect the residual along the edge.
	lo, hi := float32(0), float32(1)
	rlo := ed.r0
	for iter := 0; iter < 32; iter++ {
		mid := 0.5 * (lo + hi)
		p := ed.p0.Add(ed.p1.Sub(ed.p0).Mul(mid))
		rm := e.Residual(p)
		if (rm <= 0) == (rlo <= 0) {
			lo = mid
			rlo = rm
		} else {
			hi = mid
		}
	}
	s := 0.5 * (lo + hi)

	// Map the edge parameter to barycentric (u, v) where the hit point is
	// (1-u-v)*a + u*b + v*c.
	switch ed.index {
	case 0:
		return s, 0, true
	case 1:
		return 1 - s, s, true
	default:
		return 0, 1 - s, true
	}
}

// EllipsoidSample is the result of a successful stochastic ellipsoid query.
type EllipsoidSample struct {
	// The owning shape and the primitive index within it.
	ShapeIndex uint32
	PrimIndex  uint32

	// Barycentric coordinates of the sampled point on the primitive.
	U, V float32

	// Importance weight correcting for the traversal's branching and
	// leaf sampling probabilities.
	Weight float32
}

// Tri-state classification of a node corner against the ellipsoid surface.
type cornerState uint8

const (
	cornerUndetermined cornerState = iota
	cornerInside
	cornerOutside
)

// Snapshot of the current node's corner positions and their classification
// against the ellipsoid. Copied by value on descent so deeper levels reuse
// the shared corners without mutating their ancestors' view.
type cornerSet struct {
	p   [8]types.Vec3
	loc [8]cornerState
}

// Find one primitive plausibly crossing the ellipsoid by walking a single
// random root-to-leaf path. On success the returned weight accounts for the
// branching probability of the chosen path; the caller uses it as an
// importance-sampling correction. Failure means the sampled path found no
// crossing, not that none exists.
func (t *Tree) EllipsoidIntersect(e *Ellipsoid, sampler Sampler) (EllipsoidSample, bool) {
	var corners cornerSet
	for i := 0; i < 8; i++ {
		corners.p[i] = t.aabb.Corner(i)
	}

	sample := EllipsoidSample{Weight: 1}
	if !t.recursiveEllipsoidIntersect(0, e, &sample, corners, sampler) {
		return EllipsoidSample{}, false
	}
	return sample, true
}

func (t *Tree) recursiveEllipsoidIntersect(node uint32, e *Ellipsoid, sample *EllipsoidSample, corners cornerSet, sampler Sampler) bool {
	if !t.boxCutsEllipsoid(e, &corners) {
		return false
	}

	nd := &t.nodes[node]
	if nd.Leaf {
		low, high := nd.Left, nd.Right
		if low == high {
			return false
		}

		// Sample a single candidate primitive. A failed test does not
		// mean the leaf holds no crossing primitive; the weight records
		// the probability of having examined only this candidate.
		x := low + sampler.NextIndex(high-low)
		ta := &t.accel[t.indices[x]]
		if ta.K != KNoTriangle && ta.K != kDegenerate {
			mesh := t.shapes[ta.ShapeIndex].(scene.Mesh)
			v0, v1, v2 := mesh.Triangle(ta.PrimIndex)
			if u, v, ok := e.IntersectTriangle(v0, v1, v2, sampler); ok {
				sample.ShapeIndex = ta.ShapeIndex
				sample.PrimIndex = ta.PrimIndex
				sample.U = u
				sample.V = v
				return true
			}
		}
		sample.Weight /= float32(high - low)
		return false
	}

	// Descend into exactly one child; the sibling is never attempted as a
	// fallback. Success halves the weight to account for the coin flip.
	if sampler.Next1D() < 0.5 {
		child := splitCorners(corners, nd.Split, nd.Axis, 0)
		if t.recursiveEllipsoidIntersect(nd.Left, e, sample, child, sampler) {
			sample.Weight *= 0.5
			return true
		}
	} else {
		child := splitCorners(corners, nd.Split, nd.Axis, 1)
		if t.recursiveEllipsoidIntersect(nd.Right, e, sample, child, sampler) {
			sample.Weight *= 0.5
			return true
		}
	}
	return false
}

// Conservative subtree rejection: compare the node bounds (recovered from
// the corner snapshot) against the ellipsoid bounds. Corner classifications
// against the ellipsoid surface itself are refreshed for future tightening
// of this test but do not influence the result yet.
func (t *Tree) boxCutsEllipsoid(e *Ellipsoid, corners *cornerSet) bool {
	box := types.AABB{Min: corners.p[0], Max: corners.p[7]}
	if !box.Overlaps(e.BBox()) {
		return false
	}

	for i := 0; i < 8; i++ {
		if corners.loc[i] != cornerUndetermined {
			continue
		}
		if e.Inside(corners.p[i]) {
			corners.loc[i] = cornerInside
		} else {
			corners.loc[i] = cornerOutside
		}
	}
	return true
}

// Derive the corner snapshot of one child from its parent's: the corners
// on the split side move onto the split plane and lose their
// classification. direction 0 selects the left (below split) child.
func splitCorners(c cornerSet, split float32, axis uint8, direction int) cornerSet {
	if axis > 2 {
		panic("kdtree: internal error: split axis must be 0, 1 or 2")
	}

	for i := 0; i < 8; i++ {
		onMaxSide := i&(1<<axis) != 0
		if onMaxSide == (direction == 0) {
			c.p[i][axis] = split
			c.loc[i] = cornerUndetermined
		}
	}
	return c
}
