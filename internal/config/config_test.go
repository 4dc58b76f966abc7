package config

import (
	"errors"
	"flag"
	"io"
	"testing"

	"github.com/marben/buddhabrot"
)

func parse(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := Register(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return f
}

func TestBuild_Defaults(t *testing.T) {
	props, params, runtime, err := parse(t).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if props != buddhabrot.DefaultProperties() {
		t.Errorf("Properties = %+v, want %+v", props, buddhabrot.DefaultProperties())
	}
	if params != buddhabrot.DefaultParameters() {
		t.Errorf("Parameters = %+v, want %+v", params, buddhabrot.DefaultParameters())
	}
	if runtime != buddhabrot.DefaultRuntimeParameters() {
		t.Errorf("RuntimeParameters = %+v, want %+v", runtime, buddhabrot.DefaultRuntimeParameters())
	}
}

func TestBuild_Flags(t *testing.T) {
	f := parse(t,
		"-width", "320", "-height", "200",
		"-region", "seahorse-valley",
		"-sampler", "uniform",
		"-max-iter", "5000", "-min-iter", "20", "-symmetry",
		"-threads", "2", "-pool-batch", "0", "-thread-batch", "100", "-target", "1000000",
	)
	props, params, runtime, err := f.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if props.Width != 320 || props.Height != 200 {
		t.Errorf("size = %dx%d, want 320x200", props.Width, props.Height)
	}
	if props.Region() != buddhabrot.SeahorseValley {
		t.Errorf("Region() = %+v, want SeahorseValley", props.Region())
	}
	if props.Sampler != buddhabrot.Uniform {
		t.Errorf("Sampler = %v, want uniform", props.Sampler)
	}
	want := buddhabrot.Parameters{MaxIterations: 5000, MinIterations: 20, EscapeNorm: 4, Symmetry: true}
	if params != want {
		t.Errorf("Parameters = %+v, want %+v", params, want)
	}
	wantRuntime := buddhabrot.RuntimeParameters{Threads: 2, ThreadBatchSize: 100, PointsTarget: 1_000_000}
	if runtime != wantRuntime {
		t.Errorf("RuntimeParameters = %+v, want %+v", runtime, wantRuntime)
	}
}

func TestBuild_Rect(t *testing.T) {
	props, _, _, err := parse(t, "-rect", "1,1,-1,-0.5").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	want := buddhabrot.Region{Xmin: -1, Xmax: 1, Ymin: -0.5, Ymax: 1}
	if got := props.Region(); got != want {
		t.Errorf("Region() = %+v, want %+v", got, want)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown region", []string{"-region", "atlantis"}, buddhabrot.ErrInvalidProperties},
		{"bad rect", []string{"-rect", "1,2"}, buddhabrot.ErrInvalidProperties},
		{"bad sampler", []string{"-sampler", "sobol"}, buddhabrot.ErrInvalidProperties},
		{"zero width", []string{"-width", "0"}, buddhabrot.ErrInvalidProperties},
		{"zero max-iter", []string{"-max-iter", "0"}, buddhabrot.ErrInvalidParameters},
		{"no threads", []string{"-threads", "0"}, buddhabrot.ErrInvalidRuntime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parse(t, tt.args...).Build()
			if !errors.Is(err, tt.want) {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}
