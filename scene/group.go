package scene

import "github.com/achilleasa/transient/types"

// A compound shape aggregating other shapes. Groups cannot be registered
// with a kd-tree directly; callers must register the expanded children.
type Group struct {
	children []Shape
}

// Create a new compound shape.
func NewGroup(children ...Shape) *Group {
	return &Group{children: children}
}

// Get the child shapes. Use this to expand the group before kd-tree
// registration.
func (g *Group) Shapes() []Shape {
	return g.children
}

func (g *Group) BBox() types.AABB {
	bbox := types.NewAABB()
	for _, child := range g.children {
		bbox.Union(child.BBox())
	}
	return bbox
}

func (g *Group) Compound() bool {
	return true
}

func (g *Group) RayIntersect(r *types.Ray, mint, maxt float32) (float32, bool) {
	best := maxt
	found := false
	for _, child := range g.children {
		if t, ok := child.RayIntersect(r, mint, best); ok {
			best = t
			found = true
		}
	}
	return best, found
}

func (g *Group) NormalUV(r *types.Ray, t float32) (types.Vec3, types.Vec2) {
	for _, child := range g.children {
		if ct, ok := child.RayIntersect(r, t-types.Epsilon, t+types.Epsilon); ok {
			return child.NormalUV(r, ct)
		}
	}
	return types.Vec3{}, types.Vec2{}
}
