// cliclient controls and watches a buddhabrot server from the terminal.
// It can send an order, download the current image and follow the
// progress stream with a throughput plot.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/guptarohit/asciigraph"

	"github.com/marben/buddhabrot/internal/wire"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	addr := flag.String("addr", "localhost:8080", "server address")
	action := flag.String("do", "", "order to send: initiate, resume, pause, finish or stop")
	save := flag.String("save", "", "save the current image to this PNG file")
	scale := flag.Float64("scale", 1, "scale of the saved image")
	watch := flag.Bool("watch", false, "follow the progress stream")
	history := flag.Int("history", 60, "number of snapshots plotted by -watch")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c := newClient(*addr)

	if *action != "" {
		s, err := c.control(ctx, *action)
		if err != nil {
			return fmt.Errorf("control: %w", err)
		}
		log.Printf("%s: %s", *action, s.Status)
	}

	if *save != "" {
		if err := c.saveImage(ctx, *save, *scale); err != nil {
			return fmt.Errorf("saveImage: %w", err)
		}
		log.Printf("image saved to %q", *save)
	}

	if *watch {
		p := newPlotter(os.Stdout, *history)
		return c.watch(ctx, p.add)
	}

	if *action == "" && *save == "" {
		s, err := c.status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		fmt.Print(wire.Describe(s))
	}
	return nil
}

// plotter redraws a throughput chart on every snapshot.
type plotter struct {
	out   io.Writer
	size  int
	prev  *wire.Snapshot
	rates []float64
}

func newPlotter(out io.Writer, size int) *plotter {
	return &plotter{out: out, size: max(size, 2)}
}

func (p *plotter) add(s wire.Snapshot) {
	if p.prev != nil {
		p.rates = append(p.rates, wire.Rate(*p.prev, s))
		if len(p.rates) > p.size {
			p.rates = p.rates[len(p.rates)-p.size:]
		}
	}
	p.prev = &s

	fmt.Fprint(p.out, "\033[H\033[2J")
	if len(p.rates) > 0 {
		fmt.Fprintln(p.out, asciigraph.Plot(p.rates,
			asciigraph.Height(10),
			asciigraph.Width(p.size),
			asciigraph.Caption("points/s")))
		fmt.Fprintln(p.out)
	}
	fmt.Fprint(p.out, wire.Describe(s))
}
