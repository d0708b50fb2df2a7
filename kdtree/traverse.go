package kdtree

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/types"
)

// Pad applied to leaf search intervals so that hits lying exactly on a
// split plane are not lost to rounding.
const (
	intervalEpsMinus float32 = 1 - 1e-5
	intervalEpsPlus  float32 = 1 + 1e-5
)

// A pending subtree together with the parametric interval the ray spends
// inside it.
type stackEntry struct {
	node uint32
	mint float32
	maxt float32
}

// Identifies the primitive behind a leaf-level hit.
type hitCache struct {
	shapeIndex uint32
	primIndex  uint32
	u, v       float32
}

// Intersect a ray against the tree and return the closest hit as a full
// intersection record. A miss is reported through the boolean return, never
// as an error.
func (t *Tree) RayIntersect(r *types.Ray) (Intersection, bool) {
	if strictValidation {
		checkRay(r)
	}
	atomic.AddUint64(&t.stats.RaysTraced, 1)

	mint, maxt, ok := t.clipRay(r)
	if !ok {
		return Intersection{}, false
	}

	var cache hitCache
	tHit, found := t.traverse(r, mint, maxt, &cache)
	if !found {
		return Intersection{}, false
	}
	return t.fillIntersection(r, tHit, &cache), true
}

// Check whether a ray hits any primitive within its validity interval.
// Unlike RayIntersect this returns as soon as any occluder is found.
func (t *Tree) Occluded(r *types.Ray) bool {
	if strictValidation {
		checkRay(r)
	}
	atomic.AddUint64(&t.stats.ShadowRaysTraced, 1)

	mint, maxt, ok := t.clipRay(r)
	if !ok {
		return false
	}
	return t.traverseAny(r, mint, maxt)
}

// Clip the ray interval against the tree bounds, applying an adaptive
// epsilon to the near end so that rays spawned on a surface do not
// immediately re-hit it.
func (t *Tree) clipRay(r *types.Ray) (mint, maxt float32, ok bool) {
	mint, maxt, ok = t.aabb.IntersectRay(r)
	if !ok {
		return 0, 0, false
	}

	rayMint := r.Mint
	if rayMint == types.Epsilon {
		rayMint *= math32.Max(r.Origin.MaxAbsComponent(), types.Epsilon)
	}
	if rayMint > mint {
		mint = rayMint
	}
	if r.Maxt < maxt {
		maxt = r.Maxt
	}
	// Strict comparison so that degenerate (planar) scenes, where the
	// interval collapses to a point, still get traversed.
	if maxt < mint {
		return 0, 0, false
	}
	return mint, maxt, true
}

// Front-to-back traversal with an explicit interval stack. The search
// interval shrinks to the best hit found so far, which lets whole pending
// subtrees be discarded when they start beyond it.
func (t *Tree) traverse(r *types.Ray, mint, maxt float32, cache *hitCache) (float32, bool) {
	var stack [MaxDepth]stackEntry
	sp := 0

	bestT := math32.Inf(1)
	found := false
	cur := uint32(0)

	for {
		nd := &t.nodes[cur]
		for !nd.Leaf {
			near, far, tplane := t.classifySplit(nd, r)

			switch {
			case math32.IsNaN(tplane):
				// Ray lies inside the split plane; conservatively
				// visit both children with unclipped intervals.
				stack[sp] = stackEntry{node: far, mint: mint, maxt: maxt}
				sp++
				cur = near
			case tplane > maxt || tplane <= 0:
				cur = near
			case tplane < mint:
				cur = far
			default:
				stack[sp] = stackEntry{node: far, mint: tplane, maxt: maxt}
				sp++
				cur = near
				maxt = tplane
			}
			nd = &t.nodes[cur]
		}

		if nd.Left != nd.Right {
			searchStart := math32.Max(r.Mint, mint*intervalEpsMinus)
			searchEnd := math32.Min(bestT, maxt*intervalEpsPlus)

			for entry := nd.Left; entry < nd.Right; entry++ {
				ta := &t.accel[t.indices[entry]]
				if ta.K != KNoTriangle {
					if u, v, tHit, ok := ta.RayIntersect(r, searchStart, searchEnd); ok {
						cache.shapeIndex = ta.ShapeIndex
						cache.primIndex = ta.PrimIndex
						cache.u, cache.v = u, v
						bestT = tHit
						found = true
					}
				} else {
					shape := t.shapes[ta.ShapeIndex]
					if tHit, ok := shape.RayIntersect(r, searchStart, searchEnd); ok {
						cache.shapeIndex = ta.ShapeIndex
						cache.primIndex = KNoTriangle
						cache.u, cache.v = 0, 0
						bestT = tHit
						found = true
					}
				}
				searchEnd = math32.Min(searchEnd, bestT)
			}
		}

		// Pop the next pending subtree, skipping any that cannot
		// contain a closer hit.
		for {
			if sp == 0 {
				return bestT, found
			}
			sp--
			e := &stack[sp]
			if e.mint <= bestT {
				cur = e.node
				mint = e.mint
				maxt = math32.Min(e.maxt, bestT)
				break
			}
		}
	}
}

// Same traversal as traverse but bails out on the first hit; used for
// boolean visibility queries.
func (t *Tree) traverseAny(r *types.Ray, mint, maxt float32) bool {
	var stack [MaxDepth]stackEntry
	sp := 0

	cur := uint32(0)
	for {
		nd := &t.nodes[cur]
		for !nd.Leaf {
			near, far, tplane := t.classifySplit(nd, r)

			switch {
			case math32.IsNaN(tplane):
				// Ray lies inside the split plane; conservatively
				// visit both children with unclipped intervals.
				stack[sp] = stackEntry{node: far, mint: mint, maxt: maxt}
				sp++
				cur = near
			case tplane > maxt || tplane <= 0:
				cur = near
			case tplane < mint:
				cur = far
			default:
				stack[sp] = stackEntry{node: far, mint: tplane, maxt: maxt}
				sp++
				cur = near
				maxt = tplane
			}
			nd = &t.nodes[cur]
		}

		if nd.Left != nd.Right {
			searchStart := math32.Max(r.Mint, mint*intervalEpsMinus)
			searchEnd := math32.Min(r.Maxt, maxt*intervalEpsPlus)

			for entry := nd.Left; entry < nd.Right; entry++ {
				ta := &t.accel[t.indices[entry]]
				if ta.K != KNoTriangle {
					if _, _, _, ok := ta.RayIntersect(r, searchStart, searchEnd); ok {
						return true
					}
				} else {
					if _, ok := t.shapes[ta.ShapeIndex].RayIntersect(r, searchStart, searchEnd); ok {
						return true
					}
				}
			}
		}

		if sp == 0 {
			return false
		}
		sp--
		e := &stack[sp]
		cur = e.node
		mint = e.mint
		maxt = e.maxt
	}
}

// Order the children of an interior node front-to-back along the ray and
// compute the parametric distance to the split plane.
func (t *Tree) classifySplit(nd *Node, r *types.Ray) (near, far uint32, tplane float32) {
	axis := nd.Axis
	if r.Origin[axis] < nd.Split || (r.Origin[axis] == nd.Split && r.Dir[axis] <= 0) {
		near, far = nd.Left, nd.Right
	} else {
		near, far = nd.Right, nd.Left
	}
	tplane = (nd.Split - r.Origin[axis]) * r.DRcp[axis]
	return near, far, tplane
}
