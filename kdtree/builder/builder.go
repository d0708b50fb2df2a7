package builder

import (
	"math"
	"time"

	"github.com/achilleasa/transient/kdtree"
	"github.com/achilleasa/transient/log"
	"github.com/achilleasa/transient/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (calculated as side length / (1024 / depth+1))
	// is less than this threshold the builder will not evaluate split
	// candidates.
	minSplitStep float32 = 1e-5
)

// A split scoring strategy.
type ScoreStrategy interface {
	// Calculate a score for splitting the primitives in workList at
	// splitPoint along a particular Axis of the node bounds.
	ScoreSplit(workList []uint32, bounds []types.AABB, nodeBBox types.AABB, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)

	// Calculate a score for keeping all primitives in one leaf.
	ScorePartition(workList []uint32, nodeBBox types.AABB) (score float32)
}

// A split scoring strategy that uses the surface area heuristic (SAH).
var SurfaceAreaHeuristic ScoreStrategy = surfaceAreaHeuristic{}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type stats struct {
	totalItems int
	leafItems  int
	nodes      int
	leafs      int
	maxDepth   int
}

type sahBuilder struct {
	minLeafItems  int
	scoreStrategy ScoreStrategy
}

// Create a kd-tree builder that picks split planes with the given scoring
// strategy. minLeafItems is the primitive count at or below which a node
// becomes a leaf.
func New(minLeafItems int, scoreStrategy ScoreStrategy) kdtree.Builder {
	return &sahBuilder{
		minLeafItems:  minLeafItems,
		scoreStrategy: scoreStrategy,
	}
}

// Create a kd-tree builder with the default SAH strategy and leaf size.
func Default() kdtree.Builder {
	return New(4, SurfaceAreaHeuristic)
}

// Per-build state; the exported builder is reusable and stateless.
type buildRun struct {
	logger log.Logger

	bounds []types.AABB
	nodes  []kdtree.Node

	// Leaf ranges reference this permutation of primitive indices. A
	// primitive spanning a split plane appears under both children.
	indices []uint32

	minLeafItems  int
	scoreChan     chan splitScore
	scoreStrategy ScoreStrategy

	stats stats
}

// Build a kd-tree over the given primitive bounds.
//
// The builder scores split candidates with the configured strategy (lower
// is better) and creates a leaf whenever no candidate beats the unsplit
// score, the work list is at most minLeafItems long, or the maximum
// traversal depth is reached.
func (b *sahBuilder) Build(bounds []types.AABB) ([]kdtree.Node, []uint32) {
	run := &buildRun{
		logger:        log.New("kd builder"),
		bounds:        bounds,
		nodes:         make([]kdtree.Node, 0),
		indices:       make([]uint32, 0, len(bounds)),
		minLeafItems:  b.minLeafItems,
		scoreChan:     make(chan splitScore),
		scoreStrategy: b.scoreStrategy,
		stats: stats{
			totalItems: len(bounds),
		},
	}

	workList := make([]uint32, len(bounds))
	nodeBBox := types.NewAABB()
	for i, bb := range bounds {
		workList[i] = uint32(i)
		nodeBBox.Union(bb)
	}

	start := time.Now()
	run.partition(workList, nodeBBox, 0)
	run.logger.Debugf(
		"kd-tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, leaf refs: %d (%d primitives)\n",
		time.Since(start).Nanoseconds()/1e6,
		run.stats.maxDepth, run.stats.nodes, run.stats.leafs,
		run.stats.leafItems, run.stats.totalItems,
	)
	return run.nodes, run.indices
}

// Partition worklist and return the node index.
func (r *buildRun) partition(workList []uint32, nodeBBox types.AABB, depth int) uint32 {
	if depth > r.stats.maxDepth {
		r.stats.maxDepth = depth
	}

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= r.minLeafItems || depth >= kdtree.MaxDepth {
		return r.createLeaf(workList)
	}

	// Calc score for not splitting at all
	bestScore := r.scoreStrategy.ScorePartition(workList, nodeBBox)
	var bestSplit *splitScore

	// Run split candidate tests in parallel
	pendingScores := 0
	side := nodeBBox.Max.Sub(nodeBBox.Min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		// Skip axis if bbox dimension is too small
		if side[axis] < minSideLength {
			continue
		}

		// We want the split steps to become more granular the deeper we go
		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			continue
		}

		for splitPoint := nodeBBox.Min[axis] + splitStep; splitPoint < nodeBBox.Max[axis]; splitPoint += splitStep {
			pendingScores++
			go func(axis Axis, splitPoint float32) {
				lCount, rCount, score := r.scoreStrategy.ScoreSplit(workList, r.bounds, nodeBBox, axis, splitPoint)
				r.scoreChan <- splitScore{
					axis:       axis,
					splitPoint: splitPoint,

					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}(axis, splitPoint)
		}
	}

	// Process all scores and pick the best split
	for ; pendingScores > 0; pendingScores-- {
		candidate := <-r.scoreChan
		if candidate.score < bestScore {
			bestScore = candidate.score
			bestSplit = &candidate
		}
	}

	// If we can't find a split that improves the current node score create a leaf
	if bestSplit == nil {
		return r.createLeaf(workList)
	}

	// Split the work list into the two sides; spanning primitives are
	// referenced from both.
	leftWorkList := make([]uint32, 0, bestSplit.leftCount)
	rightWorkList := make([]uint32, 0, bestSplit.rightCount)
	for _, prim := range workList {
		bb := r.bounds[prim]
		if bb.Min[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, prim)
		}
		if bb.Max[bestSplit.axis] >= bestSplit.splitPoint {
			rightWorkList = append(rightWorkList, prim)
		}
	}

	leftBBox := nodeBBox
	leftBBox.Max[bestSplit.axis] = bestSplit.splitPoint
	rightBBox := nodeBBox
	rightBBox.Min[bestSplit.axis] = bestSplit.splitPoint

	// Add node to list
	nodeIndex := uint32(len(r.nodes))
	r.nodes = append(r.nodes, kdtree.NewInteriorNode(uint8(bestSplit.axis), bestSplit.splitPoint))
	r.stats.nodes++

	// Partition children and update node indices
	leftNodeIndex := r.partition(leftWorkList, leftBBox, depth+1)
	rightNodeIndex := r.partition(rightWorkList, rightBBox, depth+1)
	r.nodes[nodeIndex].SetChildNodes(leftNodeIndex, rightNodeIndex)

	return nodeIndex
}

// Append a leaf node referencing all items in the work list. Returns the
// index of the node in the node arena.
func (r *buildRun) createLeaf(workList []uint32) uint32 {
	start := uint32(len(r.indices))
	r.indices = append(r.indices, workList...)

	nodeIndex := uint32(len(r.nodes))
	r.nodes = append(r.nodes, kdtree.NewLeafNode(start, start+uint32(len(workList))))

	// update stats
	r.stats.nodes++
	r.stats.leafs++
	r.stats.leafItems += len(workList)

	return nodeIndex
}

// A score implementation that uses the surface area heuristic for
// calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a kd split using the surface area heuristic (lower is better):
//
// left count * left half area + right count * right half area.
//
// The halves are the node bounds clipped at the split plane. Splits that
// leave one side empty get the worst possible score (MaxFloat32) so that
// they are never selected over the unsplit baseline.
func (h surfaceAreaHeuristic) ScoreSplit(workList []uint32, bounds []types.AABB, nodeBBox types.AABB, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	for _, prim := range workList {
		bb := bounds[prim]
		if bb.Min[axis] < splitPoint {
			leftCount++
		}
		if bb.Max[axis] >= splitPoint {
			rightCount++
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math.MaxFloat32
	}

	leftBBox := nodeBBox
	leftBBox.Max[axis] = splitPoint
	rightBBox := nodeBBox
	rightBBox.Min[axis] = splitPoint

	score = float32(leftCount)*leftBBox.SurfaceArea() + float32(rightCount)*rightBBox.SurfaceArea()
	return leftCount, rightCount, score
}

// Calculate the score for keeping workList as a single leaf using the
// formula: count * node area.
func (h surfaceAreaHeuristic) ScorePartition(workList []uint32, nodeBBox types.AABB) float32 {
	if len(workList) == 0 {
		return math.MaxFloat32
	}
	return float32(len(workList)) * nodeBBox.SurfaceArea()
}
