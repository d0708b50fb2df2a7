package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/transient/kdtree"
	"github.com/achilleasa/transient/kdtree/builder"
	"github.com/achilleasa/transient/scene/reader"
)

// Build a kd-tree for a scene and print its statistics.
func SceneInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene obj file argument")
	}
	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".obj") {
		return errors.New("only wavefront scene files with an .obj extension are supported")
	}

	tree, buildTime, err := buildTree(sceneFile, ctx.Int("min-leaf-size"))
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})
	table.Append([]string{"shapes", fmt.Sprintf("%d", tree.ShapeCount())})
	table.Append([]string{"primitives", fmt.Sprintf("%d", tree.PrimitiveCount())})
	table.Append([]string{"nodes", fmt.Sprintf("%d", tree.NodeCount())})
	table.Append([]string{"build time", buildTime.String()})
	table.Render()

	return nil
}

// Parse an obj scene and build a kd-tree over all of its meshes.
func buildTree(sceneFile string, minLeafSize int) (*kdtree.Tree, time.Duration, error) {
	logger.Noticef("parsing scene: %s", sceneFile)
	meshes, err := reader.ReadOBJ(sceneFile)
	if err != nil {
		return nil, 0, err
	}

	tree := kdtree.New()
	for _, mesh := range meshes {
		tree.AddShape(mesh)
	}

	logger.Noticef("building kd-tree (%d primitives)", tree.PrimitiveCount())
	start := time.Now()
	tree.Build(builder.New(minLeafSize, builder.SurfaceAreaHeuristic))
	return tree, time.Since(start), nil
}
