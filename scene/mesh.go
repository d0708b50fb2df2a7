package scene

import "github.com/achilleasa/transient/types"

// A triangle mesh backed by an indexed vertex list. UV is optional; when
// empty the mesh reports no texture coordinates and hits against it default
// to uv (0, 0).
type TriangleMesh struct {
	Vertices []types.Vec3
	UV       []types.Vec2

	// Triangle vertex indices, 3 entries per triangle.
	Indices []uint32

	bbox types.AABB
}

// Create a new triangle mesh. Vertices should be specified in
// counter-clockwise order; the geometric normal follows the right-hand rule.
func NewTriangleMesh(vertices []types.Vec3, uv []types.Vec2, indices []uint32) *TriangleMesh {
	bbox := types.NewAABB()
	for _, v := range vertices {
		bbox.Include(v)
	}
	return &TriangleMesh{
		Vertices: vertices,
		UV:       uv,
		Indices:  indices,
		bbox:     bbox,
	}
}

func (m *TriangleMesh) BBox() types.AABB {
	return m.bbox
}

func (m *TriangleMesh) Compound() bool {
	return false
}

func (m *TriangleMesh) TriangleCount() uint32 {
	return uint32(len(m.Indices) / 3)
}

func (m *TriangleMesh) Triangle(i uint32) (types.Vec3, types.Vec3, types.Vec3) {
	return m.Vertices[m.Indices[i*3]], m.Vertices[m.Indices[i*3+1]], m.Vertices[m.Indices[i*3+2]]
}

func (m *TriangleMesh) TriangleUV(i uint32) (types.Vec2, types.Vec2, types.Vec2, bool) {
	if len(m.UV) == 0 {
		return types.Vec2{}, types.Vec2{}, types.Vec2{}, false
	}
	return m.UV[m.Indices[i*3]], m.UV[m.Indices[i*3+1]], m.UV[m.Indices[i*3+2]], true
}

// Get the bounds of triangle i.
func (m *TriangleMesh) TriangleBBox(i uint32) types.AABB {
	v0, v1, v2 := m.Triangle(i)
	bbox := types.NewAABB()
	bbox.Include(v0)
	bbox.Include(v1)
	bbox.Include(v2)
	return bbox
}

// Intersect a ray against every triangle in the mesh using the Moeller-
// Trumbore test. Meshes registered with a kd-tree are never intersected
// through this path; it serves as a reference for exhaustive tests.
func (m *TriangleMesh) RayIntersect(r *types.Ray, mint, maxt float32) (float32, bool) {
	best := maxt
	found := false
	for i := uint32(0); i < m.TriangleCount(); i++ {
		if t, _, _, ok := m.IntersectTriangle(i, r, mint, best); ok {
			best = t
			found = true
		}
	}
	return best, found
}

// Intersect a ray against triangle i, returning the hit distance and the
// barycentric coordinates of the hit point.
func (m *TriangleMesh) IntersectTriangle(i uint32, r *types.Ray, mint, maxt float32) (t, u, v float32, ok bool) {
	v0, v1, v2 := m.Triangle(i)
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)

	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -1e-8 && det < 1e-8 {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tv := r.Origin.Sub(v0)
	u = tv.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := tv.Cross(e1)
	v = r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(q) * invDet
	if t < mint || t > maxt {
		return 0, 0, 0, false
	}
	return t, u, v, true
}

// Only exercised when a mesh is intersected through its native path; the
// kd-tree resolves mesh hits through its accelerator records instead.
func (m *TriangleMesh) NormalUV(r *types.Ray, t float32) (types.Vec3, types.Vec2) {
	for i := uint32(0); i < m.TriangleCount(); i++ {
		_, u, v, ok := m.IntersectTriangle(i, r, t-types.Epsilon, t+types.Epsilon)
		if !ok {
			continue
		}
		v0, v1, v2 := m.Triangle(i)
		n := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
		if uv0, uv1, uv2, hasUV := m.TriangleUV(i); hasUV {
			w := types.Vec3{1 - u - v, u, v}
			return n, uv0.Mul(w[0]).Add(uv1.Mul(w[1])).Add(uv2.Mul(w[2]))
		}
		return n, types.Vec2{}
	}
	return types.Vec3{}, types.Vec2{}
}
