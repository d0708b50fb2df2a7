package kdtree

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/types"
)

const (
	// Projection axis tag for degenerate (zero area) triangles. The
	// intersection test rejects these unconditionally.
	kDegenerate uint32 = 3

	// Projection axis tag marking an accelerator record that carries no
	// triangle data. Intersections against such records are delegated to
	// the owning shape's native routine.
	KNoTriangle uint32 = 0xffffffff
)

var waldModulo = [4]int{1, 2, 0, 1}

// A precomputed triangle intersection record using Wald's projection
// method. The triangle is projected onto the plane most orthogonal to its
// normal (axis K) so that the per-ray test needs no vertex data.
type TriAccel struct {
	K          uint32
	NU, NV, ND float32
	AU, AV     float32
	BNU, BNV   float32
	CNU, CNV   float32

	// The owning shape and the triangle index within it.
	ShapeIndex uint32
	PrimIndex  uint32
}

// Precompute the intersection coefficients for the triangle (a, b, c).
// Returns false for degenerate triangles, which are tagged so that the
// intersection test always misses them.
func (ta *TriAccel) Load(a, b, c types.Vec3) bool {
	eb := c.Sub(a)
	ec := b.Sub(a)
	n := ec.Cross(eb)

	k := 0
	for j := 1; j < 3; j++ {
		if math32.Abs(n[j]) > math32.Abs(n[k]) {
			k = j
		}
	}
	u := waldModulo[k]
	v := waldModulo[k+1]

	denom := eb[u]*ec[v] - eb[v]*ec[u]
	if denom == 0 {
		ta.K = kDegenerate
		return false
	}

	nk := n[k]
	ta.K = uint32(k)
	ta.NU = n[u] / nk
	ta.NV = n[v] / nk
	ta.ND = a.Dot(n) / nk
	ta.BNU = eb[u] / denom
	ta.BNV = -eb[v] / denom
	ta.CNU = ec[v] / denom
	ta.CNV = -ec[u] / denom
	ta.AU = a[u]
	ta.AV = a[v]
	return true
}

// Intersect a ray against the precomputed triangle within [mint, maxt].
// Returns the barycentric coordinates and parametric distance of the hit.
func (ta *TriAccel) RayIntersect(r *types.Ray, mint, maxt float32) (u, v, t float32, hit bool) {
	var ou, ov, ok, du, dv, dk float32
	switch ta.K {
	case 0:
		ou, ov, ok = r.Origin[1], r.Origin[2], r.Origin[0]
		du, dv, dk = r.Dir[1], r.Dir[2], r.Dir[0]
	case 1:
		ou, ov, ok = r.Origin[2], r.Origin[0], r.Origin[1]
		du, dv, dk = r.Dir[2], r.Dir[0], r.Dir[1]
	case 2:
		ou, ov, ok = r.Origin[0], r.Origin[1], r.Origin[2]
		du, dv, dk = r.Dir[0], r.Dir[1], r.Dir[2]
	default:
		return 0, 0, 0, false
	}

	denom := du*ta.NU + dv*ta.NV + dk
	if denom == 0 {
		return 0, 0, 0, false
	}

	t = (ta.ND - ou*ta.NU - ov*ta.NV - ok) / denom
	if !(t >= mint && t <= maxt) {
		return 0, 0, 0, false
	}

	hu := ou + t*du - ta.AU
	hv := ov + t*dv - ta.AV
	u = hv*ta.BNU + hu*ta.BNV
	v = hu*ta.CNU + hv*ta.CNV
	return u, v, t, u >= 0 && v >= 0 && u+v <= 1
}
