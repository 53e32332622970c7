package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/isosurface"
)

// triangleBytes is the size of a normal and three vertices in float32
const triangleBytes = 4 * 3 * 4

var isoOpts struct {
	size    int
	value   float64
	boxSize int
	scale   float64
}

var isosurfaceCmd = &cobra.Command{
	Use:   "isosurface",
	Short: "Triangulate the level surface of a synthetic spherical volume",
	Long: `isosurface generates a cubic volume holding the signed distance to a
sphere of a quarter of its size and triangulates the chosen level, with the
vertex cap and sampling stride taken from the configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return triangulate(context.Background(), cmd.OutOrStdout())
	},
}

func init() {
	fs := isosurfaceCmd.Flags()
	fs.IntVar(&isoOpts.size, "size", 48, "Volume edge in voxels")
	fs.Float64Var(&isoOpts.value, "value", 0, "Iso level")
	fs.IntVar(&isoOpts.boxSize, "box", 0, "Sampling stride in voxels, 0 takes the configured one")
	fs.Float64Var(&isoOpts.scale, "scale", 1, "Voxel size along every axis")
}

func sphereVolume(size int) dataset.Source {
	radius := float64(size) / 4
	centre := float64(size-1) / 2
	return dataset.NewGenerator("sphere", func(idx []int) float64 {
		dz := float64(idx[0]) - centre
		dy := float64(idx[1]) - centre
		dx := float64(idx[2]) - centre
		return radius - math.Sqrt(dx*dx+dy*dy+dz*dz)
	}, size, size, size)
}

func triangulate(ctx context.Context, out io.Writer) error {
	box := isoOpts.boxSize
	if box == 0 {
		box = cfg.Isosurface.BoxSize
	}
	s := float32(isoOpts.scale)
	opts := isosurface.Options{
		Value:       isoOpts.value,
		BoxSize:     box,
		MaxVertices: cfg.Isosurface.MaxVertices,
		MaxBytes:    cfg.Reduction.MaxResultBytes,
		Scale:       [3]float32{s, s, s},
		Workers:     cfg.Processing.NumWorkers,
		TickCount:   cfg.Isosurface.TickCount,
	}

	start := time.Now()
	surface, err := isosurface.Generate(ctx, sphereVolume(isoOpts.size), opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	var lo, hi [3]float32
	for i := range lo {
		lo[i], hi[i] = math.MaxFloat32, -math.MaxFloat32
	}
	for _, t := range surface.Triangles {
		for _, v := range [][3]float32{t.Vertex1, t.Vertex2, t.Vertex3} {
			for i := range v {
				lo[i] = float32(math.Min(float64(lo[i]), float64(v[i])))
				hi[i] = float32(math.Max(float64(hi[i]), float64(v[i])))
			}
		}
	}

	n := len(surface.Triangles)
	mesh := uint64(n) * triangleBytes
	fmt.Fprintf(out, "triangles: %s (%s) in %v\n", humanize.Comma(int64(n)), humanize.IBytes(mesh), elapsed.Round(time.Millisecond))
	for i, name := range []string{"x", "y", "z"} {
		if n > 0 {
			fmt.Fprintf(out, "%s: %.3f .. %.3f\n", name, lo[i], hi[i])
		}
		fmt.Fprintf(out, "%s ticks: %s\n", name, strings.Join(surface.Labels[i], " "))
	}
	return nil
}
