package kdtree

import (
	"math/rand"
	"testing"

	"github.com/chewxy/math32"

	"github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

// Build a seeded soup of small random triangles inside [0, 10]^3.
func randomTriangleSoup(seed int64, count int) *scene.TriangleMesh {
	rng := rand.New(rand.NewSource(seed))

	vertices := make([]types.Vec3, 0, count*3)
	indices := make([]uint32, 0, count*3)
	for i := 0; i < count; i++ {
		center := types.XYZ(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10)
		e0 := types.XYZ(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5)
		e1 := types.XYZ(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5)

		base := uint32(len(vertices))
		vertices = append(vertices, center, center.Add(e0), center.Add(e1))
		indices = append(indices, base, base+1, base+2)
	}
	return scene.NewTriangleMesh(vertices, nil, indices)
}

func randomRay(rng *rand.Rand) types.Ray {
	origin := types.XYZ(rng.Float32()*14-2, rng.Float32()*14-2, rng.Float32()*14-2)
	target := types.XYZ(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10)
	dir := target.Sub(origin).Normalize()

	// A fixed near offset sidesteps the adaptive origin-relative epsilon
	// so the brute-force reference sees the exact same interval.
	return types.NewRayInterval(origin, dir, 1e-3, math32.Inf(1))
}

func TestClosestHitMatchesBruteForce(t *testing.T) {
	mesh := randomTriangleSoup(42, 128)
	tree := New()
	tree.AddShape(mesh)
	tree.Build(newMedianBuilder())

	rng := rand.New(rand.NewSource(7))
	hits := 0
	for i := 0; i < 500; i++ {
		ray := randomRay(rng)

		refT, refHit := mesh.RayIntersect(&ray, ray.Mint, ray.Maxt)
		its, treeHit := tree.RayIntersect(&ray)

		if refHit != treeHit {
			t.Fatalf("ray %d: expected hit=%t from brute force; tree reported %t", i, refHit, treeHit)
		}
		if !treeHit {
			continue
		}
		hits++
		if math32.Abs(its.T-refT) > 1e-3*math32.Max(1, refT) {
			t.Fatalf("ray %d: expected closest hit at t=%g; tree reported %g", i, refT, its.T)
		}
	}
	if hits == 0 {
		t.Fatal("expected at least some rays to hit the random soup")
	}
}

func TestShadowAgreesWithClosestHit(t *testing.T) {
	mesh := randomTriangleSoup(11, 96)
	tree := New()
	tree.AddShape(mesh)
	tree.Build(newMedianBuilder())

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		ray := randomRay(rng)

		_, hit := tree.RayIntersect(&ray)
		if occluded := tree.Occluded(&ray); occluded != hit {
			t.Fatalf("ray %d: closest-hit query reported hit=%t but shadow query reported %t", i, hit, occluded)
		}
	}
}

func TestSphereSentinelDelegation(t *testing.T) {
	sphere := scene.NewSphere(types.XYZ(0, 0, 0), 1)
	tree := New()
	tree.AddShape(sphere)
	tree.AddShape(scene.NewSphere(types.XYZ(5, 0, 0), 1))
	tree.Build(newMedianBuilder())

	ray := types.NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, -1))
	its, ok := tree.RayIntersect(&ray)
	if !ok {
		t.Fatal("expected ray to hit the sphere")
	}
	if math32.Abs(its.T-4) > 1e-3 {
		t.Fatalf("expected hit at t=4; got %g", its.T)
	}
	if its.Shape != sphere {
		t.Fatal("expected intersection record to reference the hit sphere")
	}
	if its.Normal.Sub(types.XYZ(0, 0, 1)).Len() > 1e-3 {
		t.Fatalf("expected normal (0,0,1); got %v", its.Normal)
	}
}

func TestClosestHitAcrossShapeTypes(t *testing.T) {
	// A triangle in front of a sphere along the same ray; the triangle
	// must win.
	mesh := scene.NewTriangleMesh(
		[]types.Vec3{{-1, -1, 2}, {1, -1, 2}, {0, 1, 2}},
		nil,
		[]uint32{0, 1, 2},
	)
	tree := New()
	tree.AddShape(mesh)
	tree.AddShape(scene.NewSphere(types.XYZ(0, 0, 0), 1))
	tree.Build(newMedianBuilder())

	ray := types.NewRay(types.XYZ(0, 0, 5), types.XYZ(0, 0, -1))
	its, ok := tree.RayIntersect(&ray)
	if !ok {
		t.Fatal("expected ray to hit")
	}
	if math32.Abs(its.T-3) > 1e-3 {
		t.Fatalf("expected the triangle hit at t=3 to win; got t=%g", its.T)
	}
	if its.Shape != mesh {
		t.Fatal("expected intersection record to reference the mesh")
	}
}

func TestRayAlongSplitPlane(t *testing.T) {
	// Two quads straddling x=1 force a split there; a ray with zero x
	// direction sitting exactly on the plane must still find its hit.
	vertices := []types.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{1, 0, 0}, {2, 0, 0}, {2, 1, 0}, {1, 1, 0},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3, 4, 5, 6, 4, 6, 7}
	mesh := scene.NewTriangleMesh(vertices, nil, indices)

	tree := New()
	tree.AddShape(mesh)
	tree.Build(medianBuilder{maxLeafItems: 1, maxDepth: 20})

	ray := types.NewRay(types.XYZ(1, 0.5, 1), types.XYZ(0, 0, -1))
	its, ok := tree.RayIntersect(&ray)
	if !ok {
		t.Fatal("expected ray on the split plane to hit")
	}
	if math32.Abs(its.T-1) > 1e-3 {
		t.Fatalf("expected hit at t=1; got %g", its.T)
	}
}
