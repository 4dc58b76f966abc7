// Package config binds the generator settings to command-line flags.
// Every command that builds an engine registers the same set.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/marben/buddhabrot"
)

// Flags holds the raw flag values until Build turns them into the
// generator's parameter structs.
type Flags struct {
	Width, Height int
	Region        string
	Rect          string
	Sampler       string
	Layers        int
	Resolution    int

	MaxIterations uint64
	MinIterations uint64
	EscapeNorm    float64
	Symmetry      bool

	Threads         int
	PoolBatchSize   uint64
	ThreadBatchSize uint64
	PointsTarget    uint64

	Verbose bool
}

// Register adds the generator flags to fs with the default values of
// the buddhabrot package.
func Register(fs *flag.FlagSet) *Flags {
	props := buddhabrot.DefaultProperties()
	params := buddhabrot.DefaultParameters()
	runtime := buddhabrot.DefaultRuntimeParameters()

	f := &Flags{}
	fs.IntVar(&f.Width, "width", props.Width, "image width")
	fs.IntVar(&f.Height, "height", props.Height, "image height")
	fs.StringVar(&f.Region, "region", "full", "preset region: full, seahorsevalley, elephantvalley, spiralminibrot, ...")
	fs.StringVar(&f.Rect, "rect", "", "explicit region as xmin,ymin,xmax,ymax; overrides -region")
	fs.StringVar(&f.Sampler, "sampler", props.Sampler.String(), "sampler: adaptive or uniform")
	fs.IntVar(&f.Layers, "layers", props.Layers, "depth of the adaptive sampling tree")
	fs.IntVar(&f.Resolution, "resolution", props.LayerResolution, "cells per axis on every tree layer")

	fs.Uint64Var(&f.MaxIterations, "max-iter", params.MaxIterations, "iterations after which an orbit counts as bounded")
	fs.Uint64Var(&f.MinIterations, "min-iter", params.MinIterations, "shortest escape that is accumulated")
	fs.Float64Var(&f.EscapeNorm, "escape", params.EscapeNorm, "escape threshold on |z|²")
	fs.BoolVar(&f.Symmetry, "symmetry", params.Symmetry, "mirror every orbit point across the real axis")

	fs.IntVar(&f.Threads, "threads", runtime.Threads, "number of workers")
	fs.Uint64Var(&f.PoolBatchSize, "pool-batch", runtime.PoolBatchSize, "points per pool window, 0 for unbounded")
	fs.Uint64Var(&f.ThreadBatchSize, "thread-batch", runtime.ThreadBatchSize, "points per worker batch")
	fs.Uint64Var(&f.PointsTarget, "target", runtime.PointsTarget, "lifetime points target, 0 for unbounded")

	fs.BoolVar(&f.Verbose, "v", false, "log generator lifecycle and batches")
	return f
}

// Build validates the flags and converts them.
func (f *Flags) Build() (buddhabrot.Properties, buddhabrot.Parameters, buddhabrot.RuntimeParameters, error) {
	var (
		params  buddhabrot.Parameters
		runtime buddhabrot.RuntimeParameters
	)
	props, err := f.Properties()
	if err != nil {
		return props, params, runtime, err
	}

	params = buddhabrot.Parameters{
		MaxIterations: f.MaxIterations,
		MinIterations: f.MinIterations,
		EscapeNorm:    f.EscapeNorm,
		Symmetry:      f.Symmetry,
	}
	if err := params.Validate(); err != nil {
		return props, params, runtime, err
	}

	runtime = buddhabrot.RuntimeParameters{
		Threads:         f.Threads,
		PoolBatchSize:   f.PoolBatchSize,
		ThreadBatchSize: f.ThreadBatchSize,
		PointsTarget:    f.PointsTarget,
	}
	if err := runtime.Validate(); err != nil {
		return props, params, runtime, err
	}
	return props, params, runtime, nil
}

// Properties converts and validates the image and sampler flags only.
func (f *Flags) Properties() (buddhabrot.Properties, error) {
	region, err := f.region()
	if err != nil {
		return buddhabrot.Properties{}, err
	}
	kind, err := buddhabrot.ParseSamplerKind(f.Sampler)
	if err != nil {
		return buddhabrot.Properties{}, fmt.Errorf("%w: %w", buddhabrot.ErrInvalidProperties, err)
	}

	a, b := region.Corners()
	props := buddhabrot.Properties{
		Width:           f.Width,
		Height:          f.Height,
		CornerA:         a,
		CornerB:         b,
		Sampler:         kind,
		Layers:          f.Layers,
		LayerResolution: f.Resolution,
	}
	return props, props.Validate()
}

func (f *Flags) region() (buddhabrot.Region, error) {
	if f.Rect != "" {
		var x0, y0, x1, y1 float64
		if _, err := fmt.Sscanf(f.Rect, "%g,%g,%g,%g", &x0, &y0, &x1, &y1); err != nil {
			return buddhabrot.Region{}, fmt.Errorf("%w: -rect %q: %w", buddhabrot.ErrInvalidProperties, f.Rect, err)
		}
		return buddhabrot.NewRegion(complex(x0, y0), complex(x1, y1)), nil
	}
	r, ok := buddhabrot.RegionByName(f.Region)
	if !ok {
		return buddhabrot.Region{}, fmt.Errorf("%w: unknown region %q", buddhabrot.ErrInvalidProperties, f.Region)
	}
	return r, nil
}

// SetupLogging routes the generator's logs to stderr when -v is set.
func (f *Flags) SetupLogging() {
	if !f.Verbose {
		return
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	buddhabrot.SetLogger(slog.New(h))
}
