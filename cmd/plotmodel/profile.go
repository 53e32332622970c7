package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"plotmodel/pkg/axis"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/interpolation"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/reduction"
	"plotmodel/pkg/region"
	"plotmodel/pkg/roi"
	"plotmodel/pkg/trace"
)

var profileOpts struct {
	width, height  int
	x0, y0, x1, y1 float64
	step           float64
	nearest        bool
	smooth         smoothOptions
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Sample a line profile across a synthetic Gaussian peak",
	Long: `profile places a line region on a synthetic image holding a Gaussian
peak at its centre and prints the sampled profile. Without endpoints the
line crosses the image through the peak.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return profile(context.Background(), cmd.OutOrStdout())
	},
}

func init() {
	fs := profileCmd.Flags()
	fs.IntVar(&profileOpts.width, "width", 128, "Image width in pixels")
	fs.IntVar(&profileOpts.height, "height", 128, "Image height in pixels")
	fs.Float64Var(&profileOpts.x0, "x0", -1, "Line start x, negative for the left edge")
	fs.Float64Var(&profileOpts.y0, "y0", -1, "Line start y, negative for the vertical centre")
	fs.Float64Var(&profileOpts.x1, "x1", -1, "Line end x, negative for the right edge")
	fs.Float64Var(&profileOpts.y1, "y1", -1, "Line end y, negative for the vertical centre")
	fs.Float64Var(&profileOpts.step, "step", 0, "Sample spacing in pixels, 0 takes the configured one")
	fs.BoolVar(&profileOpts.nearest, "nearest", false, "Sample the nearest pixel instead of interpolating")
	addSmoothFlags(fs, &profileOpts.smooth)
}

// gaussian is a lazily generated image with a peak of height 1000 at its
// centre
func gaussian(width, height int) dataset.Source {
	cx, cy := float64(width-1)/2, float64(height-1)/2
	sigma := math.Max(float64(width), float64(height)) / 8
	return dataset.NewGenerator("gaussian", func(idx []int) float64 {
		dx, dy := float64(idx[1])-cx, float64(idx[0])-cy
		return 1000 * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
	}, height, width)
}

func orDefault(v, def float64) float64 {
	if v < 0 {
		return def
	}
	return v
}

func profile(ctx context.Context, out io.Writer) error {
	o := profileOpts
	img := gaussian(o.width, o.height)

	step := o.step
	if step == 0 {
		step = cfg.Profile.Step
	}
	reducer := &reduction.LineProfile{Step: step, Method: interpolation.Bilinear}
	if o.nearest {
		reducer.Method = interpolation.Nearest
	}

	regions := region.NewRegistry()
	engine := reduction.NewEngine(regions)
	engine.Activate(reducer)
	axes := axis.Pair{
		X: axis.New("x", 0, float64(o.width-1), false),
		Y: axis.New("y", 0, float64(o.height-1), true),
	}
	reg, err := engine.CreateRegion("", img.Shape(), nil, axes)
	if err != nil {
		return err
	}
	line := roi.Line{
		X0: orDefault(o.x0, 0),
		Y0: orDefault(o.y0, float64(o.height-1)/2),
		X1: orDefault(o.x1, float64(o.width-1)),
		Y1: orDefault(o.y1, float64(o.height-1)/2),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loop := owner.NewLoop(8)
	go loop.Run(ctx)

	traces := trace.NewRegistry()
	var failure error
	job := reduction.NewJob(reducer, traces, loop, reduction.NotifierFunc(func(err error) { failure = err }))

	// geometry changes are reduced once the region has been still for the
	// configured quiet period
	scheduled := make(chan struct{}, 1)
	debouncer := region.NewDebouncer(time.Duration(cfg.Reduction.DebounceMillis)*time.Millisecond, func(e region.Event) {
		if e.Type != region.GeometryChanged {
			return
		}
		moved, ok := regions.Get(e.Name)
		if !ok {
			return
		}
		req := reduction.RequestFor(moved, img, nil, nil, nil)
		req.MaxBytes = cfg.Reduction.MaxResultBytes
		job.Schedule(ctx, req)
		select {
		case scheduled <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()
	unsubscribe := regions.Subscribe(debouncer.Handle)
	defer unsubscribe()

	if err := regions.SetROI(reg.Name, line); err != nil {
		return err
	}
	select {
	case <-scheduled:
	case <-ctx.Done():
		return ctx.Err()
	}
	job.Wait()
	if failure != nil {
		return failure
	}

	profiles := traces.UserTraces(trace.KindLine)
	if len(profiles) == 0 {
		return fmt.Errorf("line %v lies outside the %dx%d image", line.Points(), o.width, o.height)
	}
	f, err := o.smooth.filter()
	if err != nil {
		return err
	}
	if f != nil {
		plotter := trace.NewFilterDecorator(traces)
		plotter.AddFilter(f)
		for _, t := range profiles {
			l, _ := t.Line()
			if _, err := plotter.Plot1D(l.X, []*dataset.Array{l.Y.Rename(t.Name)}); err != nil {
				return err
			}
		}
		profiles = traces.UserTraces(trace.KindLine)
	}
	return writeTraces(out, profiles)
}
