package main

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/density"
	"github.com/marben/buddhabrot/generator"
	"github.com/marben/buddhabrot/internal/wire"
)

var errNotStopped = errors.New("generator is not stopped")

var viewersGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "buddhabrot_server_viewers",
	Help: "Connected websocket viewers",
})

// engineHost owns the engine the server exposes. Control calls go through
// it so that an engine is never replaced while one of them is running.
type engineHost struct {
	opts []generator.Option

	m       sync.Mutex
	engine  *generator.Engine
	viewers int
}

func newEngineHost(props buddhabrot.Properties, params buddhabrot.Parameters,
	runtime buddhabrot.RuntimeParameters, opts ...generator.Option) (*engineHost, error) {
	e, err := generator.New(density.New(props.Width, props.Height), props, params, runtime, opts...)
	if err != nil {
		return nil, err
	}
	return &engineHost{opts: opts, engine: e}, nil
}

func (h *engineHost) current() *generator.Engine {
	h.m.Lock()
	defer h.m.Unlock()
	return h.engine
}

// control runs fn on the current engine.
func (h *engineHost) control(fn func(*generator.Engine)) wire.Snapshot {
	h.m.Lock()
	defer h.m.Unlock()
	fn(h.engine)
	return h.snapshotLocked()
}

// whileStopped runs fn only if the engine is Stopped.
func (h *engineHost) whileStopped(fn func(*generator.Engine) error) (wire.Snapshot, error) {
	h.m.Lock()
	defer h.m.Unlock()
	if h.engine.Status() != buddhabrot.Stopped {
		return h.snapshotLocked(), errNotStopped
	}
	err := fn(h.engine)
	return h.snapshotLocked(), err
}

// rebuild replaces a stopped engine by a new one with a fresh
// accumulator. Parameters carry over.
func (h *engineHost) rebuild(props buddhabrot.Properties) (wire.Snapshot, error) {
	h.m.Lock()
	defer h.m.Unlock()
	if h.engine.Status() != buddhabrot.Stopped {
		return h.snapshotLocked(), errNotStopped
	}

	old := h.engine
	e, err := generator.New(density.New(props.Width, props.Height), props,
		old.Parameters(), old.RuntimeParameters(), h.opts...)
	if err != nil {
		return h.snapshotLocked(), err
	}
	h.engine = e
	log.Printf("new generator: %dx%d %s", props.Width, props.Height, props.Sampler)
	return h.snapshotLocked(), nil
}

func (h *engineHost) snapshot() wire.Snapshot {
	h.m.Lock()
	defer h.m.Unlock()
	return h.snapshotLocked()
}

func (h *engineHost) snapshotLocked() wire.Snapshot {
	s := wire.Take(h.engine, time.Now())
	s.Viewers = h.viewers
	return s
}

func (h *engineHost) stop() {
	h.control(func(e *generator.Engine) { e.Stop() })
}

func (h *engineHost) incViewers() {
	h.m.Lock()
	h.viewers++
	v := h.viewers
	h.m.Unlock()

	viewersGauge.Inc()
	log.Printf("viewers: %d", v)
}

func (h *engineHost) decViewers() {
	h.m.Lock()
	h.viewers--
	v := h.viewers
	h.m.Unlock()

	viewersGauge.Dec()
	log.Printf("viewers: %d", v)
}
