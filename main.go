package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/achilleasa/transient/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "transient"
	app.Usage = "trace rays through kd-tree partitioned scenes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "info",
			Usage: "build a kd-tree for a scene and print its statistics",
			Description: `
Parse a scene definition from a wavefront obj file, build a kd-tree over its
triangles and print tree and registry statistics.`,
			ArgsUsage: "scene_file.obj",
			Action:    cmd.SceneInfo,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "min-leaf-size",
					Value: 4,
					Usage: "minimum number of primitives per kd-tree leaf",
				},
			},
		},
		{
			Name:  "trace",
			Usage: "render a normal-map image of a scene through the kd-tree",
			Description: `
Parse a scene definition from a wavefront obj file, build a kd-tree and trace
one coherent 4-ray packet per 2x2 pixel block from an auto-placed camera. The
geometric normals of the closest hits are written out as a png image.`,
			ArgsUsage: "scene_file.obj",
			Action:    cmd.TraceScene,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "width",
					Value: 512,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height",
				},
				cli.StringFlag{
					Name:  "out",
					Value: "frame.png",
					Usage: "image filename",
				},
				cli.IntFlag{
					Name:  "min-leaf-size",
					Value: 4,
					Usage: "minimum number of primitives per kd-tree leaf",
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
