package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marben/buddhabrot/internal/config"
	"github.com/marben/buddhabrot/internal/wire"
)

// main is the entry point for the Buddhabrot server.
// The server owns one generator and exposes its controls, progress and
// image over http and websocket.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	cfg := config.Register(flag.CommandLine)
	addr := flag.String("addr", ":8080", "http listen address")
	interval := flag.Duration("interval", time.Second, "websocket snapshot interval")
	logEvery := flag.Duration("log-every", 10*time.Second, "progress log interval, 0 to disable")
	start := flag.Bool("start", false, "resume the generator right away")
	flag.Parse()
	cfg.SetupLogging()

	props, params, runtime, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	h, err := newEngineHost(props, params, runtime)
	if err != nil {
		return fmt.Errorf("newEngineHost: %w", err)
	}
	if *start {
		h.current().Resume()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	srv := webServer(ctx, *addr, h, *interval)

	g.Go(func() error {
		log.Printf("listening on http://%s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		h.stop()
		return err
	})
	if *logEvery > 0 {
		g.Go(func() error {
			logProgress(ctx, h, *logEvery)
			return nil
		})
	}
	return g.Wait()
}

// logProgress periodically reports the lifetime progress and throughput.
func logProgress(ctx context.Context, h *engineHost, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	prev := h.snapshot()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		cur := h.snapshot()
		log.Printf("%s: total %s, pool %s, %.0f points/s",
			cur.Status, cur.Total, cur.Pool, wire.Rate(prev, cur))
		prev = cur
	}
}
