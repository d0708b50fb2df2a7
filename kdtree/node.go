package kdtree

import "github.com/achilleasa/transient/types"

// The maximum kd-tree depth supported by the traversal code. Builders must
// terminate at this depth so that the fixed-size traversal stacks never
// overflow.
const MaxDepth = 48

// A kd-tree node. Leaf and interior nodes share the same storage with the
// Leaf flag acting as the discriminator:
//
//   - interior nodes split space at Split along Axis; Left and Right index
//     the child nodes inside the node arena.
//   - leaf nodes reference the [Left, Right) slice of the primitive index
//     permutation.
type Node struct {
	Split float32
	Axis  uint8
	Leaf  bool

	Left  uint32
	Right uint32
}

// Create an interior node. The child indices are typically patched in
// after the children have been appended to the arena.
func NewInteriorNode(axis uint8, split float32) Node {
	return Node{Axis: axis, Split: split}
}

// Create a leaf node covering the [start, end) permutation range.
func NewLeafNode(start, end uint32) Node {
	return Node{Leaf: true, Left: start, Right: end}
}

// Set the child node indices of an interior node.
func (n *Node) SetChildNodes(left, right uint32) {
	n.Left = left
	n.Right = right
}

// Builder computes a spatial subdivision for a set of primitive bounds.
// Implementations return the node arena (root at index 0) and a primitive
// index permutation; every leaf references a contiguous range of the
// permutation. A primitive whose bounds span a split plane may be
// referenced from both children, so the permutation may repeat indices.
type Builder interface {
	Build(bounds []types.AABB) (nodes []Node, indices []uint32)
}
