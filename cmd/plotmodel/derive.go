package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/processing"
	"plotmodel/pkg/trace"
)

type smoothOptions struct {
	method string
	window int
	order  int
	span   float64
}

var (
	deriveSmooth  smoothOptions
	deriveWindow  int
	deriveSecond  bool
	deriveNoFirst bool
	deriveNoData  bool
)

var deriveCmd = &cobra.Command{
	Use:   "derive [file]",
	Short: "Print a curve with its first and second derivatives",
	Long: `derive reads two columns from a file or stdin, optionally smooths the
curve and prints it next to its derivatives. Column names are matched
against the spectrum patterns of the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDerive,
}

func init() {
	addSmoothFlags(deriveCmd.Flags(), &deriveSmooth)
	deriveCmd.Flags().IntVar(&deriveWindow, "window", 0, "Derivative window, 0 takes the configured one")
	deriveCmd.Flags().BoolVar(&deriveSecond, "second", false, "Add the second derivative")
	deriveCmd.Flags().BoolVar(&deriveNoFirst, "no-first", false, "Leave out the first derivative")
	deriveCmd.Flags().BoolVar(&deriveNoData, "no-data", false, "Leave out the source curve")
}

func addSmoothFlags(fs *pflag.FlagSet, o *smoothOptions) {
	fs.StringVar(&o.method, "smooth", "none", "Smoothing applied before plotting: none, poly, median or loess")
	fs.IntVar(&o.window, "smooth-window", 0, "Smoothing window, 0 takes the configured one")
	fs.IntVar(&o.order, "smooth-order", 0, "Polynomial order, 0 takes the configured one")
	fs.Float64Var(&o.span, "span", 0.3, "LOESS span in (0, 1]")
}

func (o smoothOptions) filter() (trace.Filter, error) {
	window := o.window
	switch o.method {
	case "", "none":
		return nil, nil
	case "poly":
		if window == 0 {
			window = cfg.Processing.SmoothWindow
		}
		order := o.order
		if order == 0 {
			order = cfg.Processing.SmoothOrder
		}
		return processing.SmoothFilter{Window: window, Order: order}, nil
	case "median":
		if window == 0 {
			window = cfg.Processing.MedianWindow
		}
		return processing.MedianFilter{Window: window}, nil
	case "loess":
		return processing.LoessFilter{Span: o.span}, nil
	}
	return nil, fmt.Errorf("unknown smoothing %q", o.method)
}

func runDerive(cmd *cobra.Command, args []string) error {
	in := cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	return derive(context.Background(), in, cmd.OutOrStdout())
}

func derive(ctx context.Context, in io.Reader, out io.Writer) error {
	tbl, err := readTable(in)
	if err != nil {
		return fmt.Errorf("reading curve: %w", err)
	}
	x, y, err := tbl.curve(cfg)
	if err != nil {
		return err
	}

	traces := trace.NewRegistry()
	plotter := trace.NewFilterDecorator(traces)
	f, err := deriveSmooth.filter()
	if err != nil {
		return err
	}
	if f != nil {
		plotter.AddFilter(f)
	}
	if _, err := plotter.Plot1D(x, []*dataset.Array{y}); err != nil {
		return err
	}

	window := deriveWindow
	if window == 0 {
		window = cfg.Processing.DerivativeWindow
	}
	sel := processing.Selection{Data: !deriveNoData, First: !deriveNoFirst, Second: deriveSecond}
	var failure error
	p := processing.NewProcessor(traces, owner.Immediate{},
		func() processing.Selection { return sel },
		processing.WithWindow(window),
		processing.WithErrorHandler(func(err error) { failure = err }),
	)
	p.Trigger(ctx, traces.Traces())
	p.Wait()
	if failure != nil {
		return failure
	}
	return writeTraces(out, traces.UserTraces(trace.KindLine))
}
