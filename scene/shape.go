package scene

import "github.com/achilleasa/transient/types"

// Shape is a renderable primitive source that can be registered with the
// kd-tree. Shapes that do not expand into triangles (anything that is not a
// Mesh) are treated as a single opaque primitive and are intersected through
// their native routines.
type Shape interface {
	// Get the shape bounds.
	BBox() types.AABB

	// Check whether this shape is an aggregate of other shapes. Compound
	// shapes cannot be registered with a kd-tree; they must be expanded
	// into their children first.
	Compound() bool

	// Intersect a ray against the shape within the [mint, maxt] interval.
	// Returns the closest parametric hit distance.
	RayIntersect(r *types.Ray, mint, maxt float32) (float32, bool)

	// Get the geometric normal and texture coordinates at parametric
	// distance t along the ray.
	NormalUV(r *types.Ray, t float32) (types.Vec3, types.Vec2)
}

// Mesh is a Shape that expands into individual triangle primitives visible
// to the kd-tree partitioner.
type Mesh interface {
	Shape

	// Get the number of triangles in the mesh.
	TriangleCount() uint32

	// Get the vertex positions of triangle i.
	Triangle(i uint32) (v0, v1, v2 types.Vec3)

	// Get the per-vertex texture coordinates of triangle i. The second
	// return value is false if the mesh carries no texture coordinates.
	TriangleUV(i uint32) (uv0, uv1, uv2 types.Vec2, ok bool)
}
