package kdtree

import (
	"github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

// Intersection is the record returned for the closest hit of an exact ray
// query.
type Intersection struct {
	// Parametric hit distance along the ray.
	T float32

	// The shape the hit primitive belongs to.
	Shape scene.Shape

	// Geometric normal at the hit point.
	Normal types.Vec3

	// Interpolated texture coordinates; (0, 0) when the mesh defines none.
	UV types.Vec2
}

// Convert a raw leaf-level hit into a full intersection record. Triangle
// hits interpolate the mesh data through the cached barycentric weights;
// sentinel hits delegate to the owning shape.
func (t *Tree) fillIntersection(r *types.Ray, tHit float32, cache *hitCache) Intersection {
	shape := t.shapes[cache.shapeIndex]
	its := Intersection{T: tHit, Shape: shape}

	if t.meshFlag[cache.shapeIndex] {
		mesh := shape.(scene.Mesh)
		v0, v1, v2 := mesh.Triangle(cache.primIndex)
		its.Normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		if uv0, uv1, uv2, ok := mesh.TriangleUV(cache.primIndex); ok {
			b := types.Vec3{1 - cache.u - cache.v, cache.u, cache.v}
			its.UV = uv0.Mul(b[0]).Add(uv1.Mul(b[1])).Add(uv2.Mul(b[2]))
		}
	} else {
		its.Normal, its.UV = shape.NormalUV(r, tHit)
	}
	return its
}
