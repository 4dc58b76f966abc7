// render runs a generator headless until its lifetime target is reached
// and saves the density image as a PNG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/density"
	"github.com/marben/buddhabrot/generator"
	"github.com/marben/buddhabrot/internal/config"
)

var errNoTarget = errors.New("-target must be set for a headless render")

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	cfg := config.Register(flag.CommandLine)
	out := flag.String("out", "buddhabrot.png", "output file")
	scale := flag.Float64("scale", 1, "scale of the saved image")
	every := flag.Duration("progress", 5*time.Second, "progress log interval")
	flag.Parse()
	cfg.SetupLogging()

	props, params, runtime, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if runtime.PointsTarget == 0 {
		return errNoTarget
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	acc := density.New(props.Width, props.Height)
	e, err := generator.New(acc, props, params, runtime)
	if err != nil {
		return fmt.Errorf("generator.New: %w", err)
	}

	start := time.Now()
	log.Printf("rendering %d points into %dx%d", runtime.PointsTarget, props.Width, props.Height)
	if err := render(ctx, e, *every); err != nil {
		log.Printf("interrupted, saving partial image: %v", err)
	}
	log.Printf("done %s in %s", e.TotalProgress(), time.Since(start).Round(time.Millisecond))

	return save(*out, density.Scale(e.Image(), *scale))
}

// render resumes e and waits for its lifetime target. e is stopped on
// return.
func render(ctx context.Context, e *generator.Engine, every time.Duration) error {
	defer e.Stop()
	e.Resume()

	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()
	report := time.NewTicker(every)
	defer report.Stop()
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-report.C:
			log.Printf("%s: %s", e.Status(), progressLine(e.TotalProgress()))
		case <-poll.C:
			if p := e.TotalProgress(); p.Done >= p.Target {
				return nil
			}
		}
	}
}

func progressLine(p buddhabrot.Progress) string {
	if r, ok := p.Ratio(); ok {
		return fmt.Sprintf("%s (%.1f%%)", p, r*100)
	}
	return p.String()
}

func save(filename string, img *image.RGBA) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("png.Encode: %w", err)
	}
	log.Printf("image saved to %q", filename)
	return f.Close()
}
