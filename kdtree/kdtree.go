package kdtree

import (
	"fmt"

	"github.com/achilleasa/transient/scene"
	"github.com/achilleasa/transient/types"
)

// Tree is an immutable kd-tree over a set of registered shapes. Shapes are
// added one by one and the tree is then built exactly once; after Build
// returns, every query method is a pure read and is safe for any number of
// concurrent callers.
type Tree struct {
	shapes []scene.Shape

	// Cumulative primitive counts, one entry per shape plus a leading
	// zero. shapeMap[i] is the global index of shape i's first primitive.
	shapeMap []uint32

	// Marks shapes that expand into per-triangle primitives.
	meshFlag []bool

	nodes   []Node
	indices []uint32
	accel   []TriAccel
	aabb    types.AABB
	built   bool

	stats Stats
}

// Create a new, empty kd-tree.
func New() *Tree {
	return &Tree{
		shapeMap: []uint32{0},
	}
}

// Register a shape with the tree. Meshes are expanded into individual
// triangle primitives visible to the partitioner; any other shape is
// registered as a single opaque primitive.
//
// Registering a compound shape or registering after Build is a violation
// of the one-shot construction protocol and panics.
func (t *Tree) AddShape(shape scene.Shape) {
	if t.built {
		panic("kdtree: cannot add shapes to a built tree")
	}
	if shape.Compound() {
		panic("kdtree: cannot add compound shapes to a kd-tree - expand them first")
	}

	if mesh, isMesh := shape.(scene.Mesh); isMesh {
		t.shapeMap = append(t.shapeMap, mesh.TriangleCount())
		t.meshFlag = append(t.meshFlag, true)
	} else {
		t.shapeMap = append(t.shapeMap, 1)
		t.meshFlag = append(t.meshFlag, false)
	}
	t.shapes = append(t.shapes, shape)
}

// Build the tree over all registered shapes using the supplied builder.
// One-shot: calling Build twice or building an empty tree panics. After a
// successful Build the tree is immutable.
func (t *Tree) Build(b Builder) {
	if t.built {
		panic("kdtree: tree has already been built")
	}
	if len(t.shapes) == 0 {
		panic("kdtree: cannot build a kd-tree with no registered shapes")
	}

	// Finalize the shape map into a prefix sum.
	for i := 1; i < len(t.shapeMap); i++ {
		t.shapeMap[i] += t.shapeMap[i-1]
	}

	bounds := t.primitiveBounds()
	t.aabb = types.NewAABB()
	for _, bb := range bounds {
		t.aabb.Union(bb)
	}

	t.nodes, t.indices = b.Build(bounds)
	t.bakeAccelTable()
	t.built = true
}

// Collect the bounds of every primitive in global index order.
func (t *Tree) primitiveBounds() []types.AABB {
	bounds := make([]types.AABB, 0, t.shapeMap[len(t.shapeMap)-1])
	for i, shape := range t.shapes {
		if t.meshFlag[i] {
			mesh := shape.(scene.Mesh)
			for j := uint32(0); j < mesh.TriangleCount(); j++ {
				v0, v1, v2 := mesh.Triangle(j)
				bb := types.NewAABB()
				bb.Include(v0)
				bb.Include(v1)
				bb.Include(v2)
				bounds = append(bounds, bb)
			}
		} else {
			bounds = append(bounds, shape.BBox())
		}
	}
	return bounds
}

// Precompute one intersection record per primitive. Non-mesh shapes get a
// sentinel record that redirects to the shape's native intersection code.
func (t *Tree) bakeAccelTable() {
	primCount := t.shapeMap[len(t.shapeMap)-1]
	t.accel = make([]TriAccel, primCount)

	idx := uint32(0)
	for i, shape := range t.shapes {
		if t.meshFlag[i] {
			mesh := shape.(scene.Mesh)
			for j := uint32(0); j < mesh.TriangleCount(); j++ {
				v0, v1, v2 := mesh.Triangle(j)
				t.accel[idx].Load(v0, v1, v2)
				t.accel[idx].ShapeIndex = uint32(i)
				t.accel[idx].PrimIndex = j
				idx++
			}
		} else {
			t.accel[idx] = TriAccel{K: KNoTriangle, ShapeIndex: uint32(i)}
			idx++
		}
	}

	if idx != primCount {
		panic(fmt.Sprintf("kdtree: internal error: accelerator table holds %d entries for %d primitives", idx, primCount))
	}
}

// Get the number of registered shapes.
func (t *Tree) ShapeCount() int {
	return len(t.shapes)
}

// Get the total number of primitives covered by the tree.
func (t *Tree) PrimitiveCount() uint32 {
	if t.built {
		return t.shapeMap[len(t.shapeMap)-1]
	}
	var total uint32
	for _, count := range t.shapeMap {
		total += count
	}
	return total
}

// Get the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// Get the bounds of the whole tree.
func (t *Tree) BBox() types.AABB {
	return t.aabb
}
