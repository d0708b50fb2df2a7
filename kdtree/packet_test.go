package kdtree

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

func TestFloat4Ops(t *testing.T) {
	a := Float4{1, 2, 3, 4}
	b := Float4{4, 3, 2, 1}

	if got := a.Add(b); got != (Float4{5, 5, 5, 5}) {
		t.Fatalf("expected add to yield (5,5,5,5); got %v", got)
	}
	if got := a.Min(b); got != (Float4{1, 2, 2, 1}) {
		t.Fatalf("expected min to yield (1,2,2,1); got %v", got)
	}
	if got := a.Max(b); got != (Float4{4, 3, 3, 4}) {
		t.Fatalf("expected max to yield (4,3,3,4); got %v", got)
	}

	gt := a.Gt(b)
	if gt.Bit(0) || gt.Bit(1) || !gt.Bit(2) || !gt.Bit(3) {
		t.Fatalf("expected gt mask 0b1100; got %04b", gt)
	}
	if gt.All() {
		t.Fatal("expected partial mask to not report all lanes")
	}

	var m Mask4
	for i := 0; i < 4; i++ {
		m.Set(i)
	}
	if !m.All() {
		t.Fatal("expected fully set mask to report all lanes")
	}
}

// Coherent camera-style bundle: common origin region, clustered targets.
// Resamples until all 4 lanes agree on direction signs, which is the
// contract of the coherent traversal.
func coherentPacket(rng *rand.Rand) [4]types.Ray {
	for {
		base := types.XYZ(rng.Float32()*10, rng.Float32()*10, 15)
		target := types.XYZ(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10)

		var rays [4]types.Ray
		for i := 0; i < 4; i++ {
			jitter := types.XYZ(float32(i%2)*0.05, float32(i/2)*0.05, 0)
			origin := base.Add(jitter)
			rays[i] = types.NewRayInterval(origin, target.Sub(origin).Normalize(), 1e-3, math32.Inf(1))
		}

		coherent := true
		for axis := 0; axis < 3 && coherent; axis++ {
			for i := 1; i < 4; i++ {
				if (rays[i].Dir[axis] < 0) != (rays[0].Dir[axis] < 0) {
					coherent = false
					break
				}
			}
		}
		if coherent {
			return rays
		}
	}
}

func assertPacketMatchesScalar(t *testing.T, tree *Tree, rays [4]types.Ray, packetNo int, incoherent bool) {
	t.Helper()

	packet, interval := NewRayPacket(rays)
	its := NewIntersection4()
	if incoherent {
		tree.RayIntersectPacketIncoherent(packet, interval, its)
	} else {
		tree.RayIntersectPacket(packet, interval, its)
	}

	for lane := 0; lane < 4; lane++ {
		ref, refHit := tree.RayIntersect(&rays[lane])
		record, hit := tree.FillPacketIntersection(packet, interval, its, lane)

		if refHit != hit {
			t.Fatalf("packet %d lane %d: scalar hit=%t but packet hit=%t", packetNo, lane, refHit, hit)
		}
		if !hit {
			continue
		}
		if math32.Abs(record.T-ref.T) > 1e-3*math32.Max(1, ref.T) {
			t.Fatalf("packet %d lane %d: scalar t=%g but packet t=%g", packetNo, lane, ref.T, record.T)
		}
		if record.Shape != ref.Shape {
			t.Fatalf("packet %d lane %d: packet resolved a different shape", packetNo, lane)
		}
		if record.Normal.Sub(ref.Normal).Len() > 1e-3 {
			t.Fatalf("packet %d lane %d: scalar normal %v but packet normal %v", packetNo, lane, ref.Normal, record.Normal)
		}
		if record.UV.Sub(ref.UV).Len() > 1e-3 {
			t.Fatalf("packet %d lane %d: scalar uv %v but packet uv %v", packetNo, lane, ref.UV, record.UV)
		}
	}
}

func TestPacketMatchesScalarTraversal(t *testing.T) {
	tree := New()
	tree.AddShape(randomTriangleSoup(21, 128))
	tree.Build(newMedianBuilder())

	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 200; i++ {
		assertPacketMatchesScalar(t, tree, coherentPacket(rng), i, false)
	}
}

func TestPacketWithIdenticalLanes(t *testing.T) {
	tree := singleTriangleTree(nil)

	ray := types.NewRay(types.XYZ(0.2, 0.2, 1), types.XYZ(0, 0, -1))
	assertPacketMatchesScalar(t, tree, [4]types.Ray{ray, ray, ray, ray}, 0, false)
}

func TestPacketWithMixedHitAndMissLanes(t *testing.T) {
	tree := singleTriangleTree(nil)

	hit := types.NewRay(types.XYZ(0.2, 0.2, 1), types.XYZ(0, 0, -1))
	miss := types.NewRay(types.XYZ(5, 5, 1), types.XYZ(0, 0, -1))
	assertPacketMatchesScalar(t, tree, [4]types.Ray{hit, miss, hit, miss}, 0, false)
}

func TestIncoherentPacketMatchesScalarTraversal(t *testing.T) {
	tree := New()
	tree.AddShape(randomTriangleSoup(33, 128))
	tree.Build(newMedianBuilder())

	rng := rand.New(rand.NewSource(29))
	for i := 0; i < 100; i++ {
		// Fully random rays; no sign coherence required on this path.
		var rays [4]types.Ray
		for lane := 0; lane < 4; lane++ {
			rays[lane] = randomRay(rng)
		}
		assertPacketMatchesScalar(t, tree, rays, i, true)
	}
}

func TestPacketSentinelLanes(t *testing.T) {
	sphere := scene.NewSphere(types.XYZ(5, 5, 5), 2)
	tree := New()
	tree.AddShape(randomTriangleSoup(5, 32))
	tree.AddShape(sphere)
	tree.Build(newMedianBuilder())

	ray := types.NewRayInterval(types.XYZ(5, 5, 15), types.XYZ(0, 0, -1), 1e-3, math32.Inf(1))
	assertPacketMatchesScalar(t, tree, [4]types.Ray{ray, ray, ray, ray}, 0, false)
}

func TestPacketAdaptiveEpsilonMatchesScalar(t *testing.T) {
	// A far-from-origin scene scales the default near offset by the ray
	// origin magnitude (1e-4 * 1000 = 0.1); a hit at t=0.05 sits inside
	// that zone and must be suppressed by both paths.
	mesh := scene.NewTriangleMesh(
		[]types.Vec3{{999.95, 0, 0}, {999.95, 2, 0}, {999.95, 0, 2}},
		nil,
		[]uint32{0, 1, 2},
	)
	tree := New()
	tree.AddShape(mesh)
	tree.Build(newMedianBuilder())

	grazing := types.NewRay(types.XYZ(1000, 0.2, 0.2), types.XYZ(-1, 0, 0))
	if _, ok := tree.RayIntersect(&grazing); ok {
		t.Fatal("expected hit inside the scaled near zone to be suppressed")
	}
	assertPacketMatchesScalar(t, tree, [4]types.Ray{grazing, grazing, grazing, grazing}, 0, false)

	// Backing the origin out of the zone restores the hit on both paths.
	distant := types.NewRay(types.XYZ(1001, 0.2, 0.2), types.XYZ(-1, 0, 0))
	if _, ok := tree.RayIntersect(&distant); !ok {
		t.Fatal("expected hit outside the scaled near zone")
	}
	assertPacketMatchesScalar(t, tree, [4]types.Ray{distant, distant, distant, distant}, 1, false)
}

func TestPacketCounters(t *testing.T) {
	tree := singleTriangleTree(nil)

	ray := types.NewRay(types.XYZ(0.2, 0.2, 1), types.XYZ(0, 0, -1))
	packet, interval := NewRayPacket([4]types.Ray{ray, ray, ray, ray})

	tree.RayIntersectPacket(packet, interval, NewIntersection4())
	tree.RayIntersectPacketIncoherent(packet, interval, NewIntersection4())

	stats := tree.Stats()
	if stats.CoherentPackets != 1 {
		t.Fatalf("expected 1 coherent packet; got %d", stats.CoherentPackets)
	}
	if stats.IncoherentPackets != 1 {
		t.Fatalf("expected 1 incoherent packet; got %d", stats.IncoherentPackets)
	}
}
