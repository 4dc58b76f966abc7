// viewer shows a live Buddhabrot render in a window and drives the
// generator from the keyboard.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/density"
	"github.com/marben/buddhabrot/generator"
	"github.com/marben/buddhabrot/internal/config"
	"github.com/marben/buddhabrot/internal/wire"
)

const keysHelp = "space pause/resume  f finish batch  s stop  i initiate  h hud  esc quit"

// viewer implements ebiten.Game.
type viewer struct {
	engine  *generator.Engine
	scale   float64
	refresh int // ticks between texture uploads

	canvas *ebiten.Image
	tick   int
	hud    bool
}

func newViewer(e *generator.Engine, scale float64, refresh int) *viewer {
	b := density.Scale(e.Image(), scale).Bounds()
	return &viewer{
		engine:  e,
		scale:   scale,
		refresh: max(refresh, 1),
		canvas:  ebiten.NewImage(b.Dx(), b.Dy()),
		hud:     true,
	}
}

func (v *viewer) Update() error {
	e := v.engine
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if e.Status() == buddhabrot.Running {
			e.Pause()
		} else {
			e.Resume()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		e.FinishBatch()
	case inpututil.IsKeyJustPressed(ebiten.KeyS):
		// blocks until every worker is out, bounded by one point
		e.Stop()
	case inpututil.IsKeyJustPressed(ebiten.KeyI):
		e.Initiate()
	case inpututil.IsKeyJustPressed(ebiten.KeyH):
		v.hud = !v.hud
	}

	if v.tick%v.refresh == 0 {
		v.canvas.WritePixels(density.Scale(e.Image(), v.scale).Pix)
	}
	v.tick++
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.DrawImage(v.canvas, nil)
	if v.hud {
		s := wire.Take(v.engine, time.Now())
		ebitenutil.DebugPrint(screen, fmt.Sprintf("%sTPS: %.0f\n%s", wire.Describe(s), ebiten.ActualTPS(), keysHelp))
	}
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.canvas.Bounds().Dx(), v.canvas.Bounds().Dy()
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	cfg := config.Register(flag.CommandLine)
	scale := flag.Float64("scale", 1, "window scale of the image")
	refresh := flag.Int("refresh", 15, "ticks between image refreshes")
	start := flag.Bool("start", true, "resume the generator right away")
	flag.Parse()
	cfg.SetupLogging()

	props, params, runtime, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !(*scale > 0) {
		return fmt.Errorf("-scale %v: must be positive", *scale)
	}
	e, err := generator.New(density.New(props.Width, props.Height), props, params, runtime)
	if err != nil {
		return fmt.Errorf("generator.New: %w", err)
	}
	defer e.Stop()
	if *start {
		e.Resume()
	}

	v := newViewer(e, *scale, *refresh)
	b := v.canvas.Bounds()
	ebiten.SetWindowSize(b.Dx(), b.Dy())
	ebiten.SetWindowTitle("Buddhabrot")
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("ebiten.RunGame: %w", err)
	}
	log.Printf("total points: %s", e.TotalProgress())
	return nil
}
