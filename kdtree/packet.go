package kdtree

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/types"
)

// RayPacket holds 4 rays in structure-of-arrays layout for batch traversal.
// The coherent traversal assumes all 4 rays share direction signs; build
// packets from rays of a common origin bundle (e.g. adjacent camera pixels)
// or use the incoherent entry point.
type RayPacket struct {
	O    [3]Float4
	D    [3]Float4
	DRcp [3]Float4

	// Per-axis direction sign of lane 0; the coherence contract makes it
	// representative for the whole packet.
	Signs [3]int
}

// RayInterval holds the per-lane validity intervals of a packet.
type RayInterval struct {
	MinT Float4
	MaxT Float4
}

// Intersection4 receives the per-lane results of a packet query. Lanes
// without a hit keep T at +inf and ShapeIndex at -1.
type Intersection4 struct {
	T          Float4
	U, V       Float4
	ShapeIndex [4]int32
	PrimIndex  [4]uint32
}

// Create a packet and its validity intervals from 4 rays.
func NewRayPacket(rays [4]types.Ray) (*RayPacket, *RayInterval) {
	p := &RayPacket{}
	ri := &RayInterval{}
	for i, r := range rays {
		for axis := 0; axis < 3; axis++ {
			p.O[axis][i] = r.Origin[axis]
			p.D[axis][i] = r.Dir[axis]
			p.DRcp[axis][i] = r.DRcp[axis]
		}
		ri.MinT[i] = r.Mint
		ri.MaxT[i] = r.Maxt
	}
	for axis := 0; axis < 3; axis++ {
		if rays[0].Dir[axis] < 0 {
			p.Signs[axis] = 1
		}
	}
	return p, ri
}

// Create a result record with all lanes marked as misses.
func NewIntersection4() *Intersection4 {
	inf := math32.Inf(1)
	return &Intersection4{
		T:          Float4{inf, inf, inf, inf},
		ShapeIndex: [4]int32{-1, -1, -1, -1},
	}
}

// Get the ray for one lane of the packet, clipped to the given interval.
func (p *RayPacket) Lane(i int, ri *RayInterval) types.Ray {
	return types.Ray{
		Origin: types.Vec3{p.O[0][i], p.O[1][i], p.O[2][i]},
		Dir:    types.Vec3{p.D[0][i], p.D[1][i], p.D[2][i]},
		DRcp:   types.Vec3{p.DRcp[0][i], p.DRcp[1][i], p.DRcp[2][i]},
		Mint:   ri.MinT[i],
		Maxt:   ri.MaxT[i],
	}
}

// Pending far child together with the per-lane clipped intervals.
type packetStackEntry struct {
	node     uint32
	interval RayInterval
}

// Intersect 4 coherent rays against the tree simultaneously. The result
// per lane equals an independent RayIntersect call on that lane's ray; the
// batching exists purely for throughput. Lanes whose interval is empty are
// masked out and carried along untouched.
func (t *Tree) RayIntersectPacket(p *RayPacket, ri *RayInterval, its *Intersection4) {
	atomic.AddUint64(&t.stats.CoherentPackets, 1)

	var stack [MaxDepth]packetStackEntry
	sp := 0

	interval, anyHit := t.intersectAABBPacket(p)
	if !anyHit {
		return
	}

	// Mirror the scalar clip: lanes carrying the default near offset get it
	// scaled by their origin magnitude to suppress self-intersections.
	minT := ri.MinT
	for i := 0; i < 4; i++ {
		if minT[i] == types.Epsilon {
			origin := types.Vec3{p.O[0][i], p.O[1][i], p.O[2][i]}
			minT[i] *= math32.Max(origin.MaxAbsComponent(), types.Epsilon)
		}
	}
	interval.MinT = interval.MinT.Max(minT)
	interval.MaxT = interval.MaxT.Min(ri.MaxT)

	found := interval.MinT.Gt(interval.MaxT)
	masked := found
	if found.All() {
		return
	}

	cur := uint32(0)
	for {
		nd := &t.nodes[cur]
		for !nd.Leaf {
			axis := nd.Axis

			// Distance to the split plane for all 4 lanes.
			tp := Splat(nd.Split).Sub(p.O[axis]).Mul(p.DRcp[axis])

			startsAfterSplit := masked.Or(tp.Lt(interval.MinT))
			endsBeforeSplit := masked.Or(tp.Gt(interval.MaxT))

			near, far := nd.Left, nd.Right
			if p.Signs[axis] == 1 {
				near, far = far, near
			}

			// Every active lane agrees on one side: descend with no push.
			if startsAfterSplit.All() {
				cur = far
				nd = &t.nodes[cur]
				continue
			}
			if endsBeforeSplit.All() {
				cur = near
				nd = &t.nodes[cur]
				continue
			}

			stack[sp] = packetStackEntry{
				node: far,
				interval: RayInterval{
					MinT: tp.Max(interval.MinT),
					MaxT: interval.MaxT,
				},
			}
			sp++
			interval.MaxT = tp.Min(interval.MaxT)
			masked = masked.Or(interval.MinT.Gt(interval.MaxT))
			cur = near
			nd = &t.nodes[cur]
		}

		if nd.Left != nd.Right {
			searchStart := ri.MinT.Max(interval.MinT.Mul(Splat(intervalEpsMinus)))
			searchEnd := ri.MaxT.Min(interval.MaxT.Mul(Splat(intervalEpsPlus)))

			for entry := nd.Left; entry < nd.Right; entry++ {
				ta := &t.accel[t.indices[entry]]
				if ta.K != KNoTriangle {
					found = found.Or(t.intersectTriAccelPacket(ta, p, searchStart, searchEnd, masked, its))
				} else {
					shape := t.shapes[ta.ShapeIndex]
					for i := 0; i < 4; i++ {
						if masked.Bit(i) {
							continue
						}
						ray := p.Lane(i, ri)
						if tHit, ok := shape.RayIntersect(&ray, searchStart[i], searchEnd[i]); ok && tHit < its.T[i] {
							its.T[i] = tHit
							its.ShapeIndex[i] = int32(ta.ShapeIndex)
							its.PrimIndex[i] = KNoTriangle
							its.U[i], its.V[i] = 0, 0
							found.Set(i)
						}
					}
				}
				searchEnd = searchEnd.Min(its.T)
			}
		}

		// Stop once every lane resolved or the stack is exhausted.
		if found.All() || sp == 0 {
			return
		}
		sp--
		cur = stack[sp].node
		interval = stack[sp].interval
		masked = found.Or(interval.MinT.Gt(interval.MaxT))
	}
}

// Process 4 rays as independent scalar traversals and pack the results.
// This is the correctness-first alternative for packets with no useful
// traversal coherence.
func (t *Tree) RayIntersectPacketIncoherent(p *RayPacket, ri *RayInterval, its *Intersection4) {
	atomic.AddUint64(&t.stats.IncoherentPackets, 1)

	for i := 0; i < 4; i++ {
		ray := p.Lane(i, ri)
		if ray.Mint >= ray.Maxt {
			continue
		}

		mint, maxt, ok := t.clipRay(&ray)
		if !ok {
			continue
		}
		var cache hitCache
		if tHit, found := t.traverse(&ray, mint, maxt, &cache); found {
			its.T[i] = tHit
			its.ShapeIndex[i] = int32(cache.shapeIndex)
			its.PrimIndex[i] = cache.primIndex
			its.U[i] = cache.u
			its.V[i] = cache.v
		}
	}
}

// Convert one resolved lane of a packet result into a full intersection
// record. Returns false if the lane holds no hit.
func (t *Tree) FillPacketIntersection(p *RayPacket, ri *RayInterval, its *Intersection4, lane int) (Intersection, bool) {
	if its.ShapeIndex[lane] < 0 {
		return Intersection{}, false
	}
	ray := p.Lane(lane, ri)
	cache := hitCache{
		shapeIndex: uint32(its.ShapeIndex[lane]),
		primIndex:  its.PrimIndex[lane],
		u:          its.U[lane],
		v:          its.V[lane],
	}
	return t.fillIntersection(&ray, its.T[lane], &cache), true
}

// Batched slab test of the packet against the tree bounds. Lanes that miss
// get an inverted interval so that downstream masking discards them.
func (t *Tree) intersectAABBPacket(p *RayPacket) (RayInterval, bool) {
	var interval RayInterval
	anyHit := false
	for i := 0; i < 4; i++ {
		ray := types.Ray{
			Origin: types.Vec3{p.O[0][i], p.O[1][i], p.O[2][i]},
			DRcp:   types.Vec3{p.DRcp[0][i], p.DRcp[1][i], p.DRcp[2][i]},
		}
		mint, maxt, ok := t.aabb.IntersectRay(&ray)
		if !ok {
			interval.MinT[i] = 1
			interval.MaxT[i] = 0
			continue
		}
		interval.MinT[i] = mint
		interval.MaxT[i] = maxt
		anyHit = true
	}
	return interval, anyHit
}

// 4-lane triangle test against a single accelerator record. Already-masked
// lanes are skipped; lanes with a new closer hit are reported in the result
// mask and written to its.
func (t *Tree) intersectTriAccelPacket(ta *TriAccel, p *RayPacket, searchStart, searchEnd Float4, masked Mask4, its *Intersection4) Mask4 {
	var hits Mask4
	for i := 0; i < 4; i++ {
		if masked.Bit(i) {
			continue
		}
		ray := types.Ray{
			Origin: types.Vec3{p.O[0][i], p.O[1][i], p.O[2][i]},
			Dir:    types.Vec3{p.D[0][i], p.D[1][i], p.D[2][i]},
		}
		if u, v, tHit, ok := ta.RayIntersect(&ray, searchStart[i], searchEnd[i]); ok && tHit < its.T[i] {
			its.T[i] = tHit
			its.U[i] = u
			its.V[i] = v
			its.ShapeIndex[i] = int32(ta.ShapeIndex)
			its.PrimIndex[i] = ta.PrimIndex
			hits.Set(i)
		}
	}
	return hits
}
