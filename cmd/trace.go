package cmd

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/achilleasa/transient/kdtree"
	"github.com/achilleasa/transient/types"
)

// Render a normal-map image of a scene by tracing one coherent 4-ray
// packet per 2x2 pixel block through the kd-tree.
func TraceScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing scene obj file argument")
	}
	sceneFile := ctx.Args().First()
	if !strings.HasSuffix(sceneFile, ".obj") {
		return errors.New("only wavefront scene files with an .obj extension are supported")
	}

	tree, _, err := buildTree(sceneFile, ctx.Int("min-leaf-size"))
	if err != nil {
		return err
	}

	width := ctx.Int("width")
	height := ctx.Int("height")
	if width < 2 || height < 2 {
		return errors.New("frame dimensions must be at least 2x2")
	}

	logger.Noticef("rendering %dx%d frame", width, height)
	start := time.Now()
	frame := renderNormals(tree, width, height)
	logger.Noticef("rendered frame in %d ms", time.Since(start).Nanoseconds()/1e6)

	out, err := os.Create(ctx.String("out"))
	if err != nil {
		return err
	}
	defer out.Close()
	if err = png.Encode(out, frame); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s", ctx.String("out"))

	stats := tree.Stats()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"counter", "value"})
	table.Append([]string{"rays traced", fmt.Sprintf("%d", stats.RaysTraced)})
	table.Append([]string{"shadow rays traced", fmt.Sprintf("%d", stats.ShadowRaysTraced)})
	table.Append([]string{"coherent packets", fmt.Sprintf("%d", stats.CoherentPackets)})
	table.Append([]string{"incoherent packets", fmt.Sprintf("%d", stats.IncoherentPackets)})
	table.Render()

	return nil
}

// Trace the frame with an orthographic camera looking down the -z axis at
// the scene bounds. Each 2x2 pixel block becomes one coherent packet.
func renderNormals(tree *kdtree.Tree, width, height int) *image.RGBA {
	bbox := tree.BBox()
	center := bbox.Min.Add(bbox.Max).Mul(0.5)
	side := bbox.Max.Sub(bbox.Min)

	extent := side[0]
	if side[1] > extent {
		extent = side[1]
	}
	extent *= 0.5 * 1.1

	camZ := bbox.Max[2] + side[2] + 1
	dir := types.XYZ(0, 0, -1)

	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	for by := 0; by < height; by += 2 {
		for bx := 0; bx < width; bx += 2 {
			var rays [4]types.Ray
			for lane := 0; lane < 4; lane++ {
				x := bx + lane%2
				y := by + lane/2
				sx := center[0] + extent*(2*float32(x)/float32(width)-1)
				sy := center[1] + extent*(1-2*float32(y)/float32(height))
				rays[lane] = types.NewRay(types.XYZ(sx, sy, camZ), dir)
			}

			packet, interval := kdtree.NewRayPacket(rays)
			its := kdtree.NewIntersection4()
			tree.RayIntersectPacket(packet, interval, its)

			for lane := 0; lane < 4; lane++ {
				x := bx + lane%2
				y := by + lane/2
				if x >= width || y >= height {
					continue
				}
				px := color.RGBA{A: 255}
				if record, ok := tree.FillPacketIntersection(packet, interval, its, lane); ok {
					px.R = uint8((record.Normal[0]*0.5 + 0.5) * 255)
					px.G = uint8((record.Normal[1]*0.5 + 0.5) * 255)
					px.B = uint8((record.Normal[2]*0.5 + 0.5) * 255)
				}
				frame.SetRGBA(x, y, px)
			}
		}
	}
	return frame
}
