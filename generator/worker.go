package generator

import (
	"context"
	"image"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/sampler"
)

type workerState int

const (
	statePaused workerState = iota
	stateAcquiring
	stateProcessing
	stateStopped
)

// worker is the per-goroutine state. Its buffers are reused across
// points.
type worker struct {
	e      *Engine
	index  int
	params buddhabrot.Parameters

	done, target uint64
	orbit        []complex128
	pixels       []image.Point
	stats        batchStats
}

func (e *Engine) work(index int, params buddhabrot.Parameters) {
	defer e.wg.Done()

	w := &worker{e: e, index: index, params: params}
	state := statePaused
	for state != stateStopped {
		switch state {
		case statePaused:
			state = w.paused()
		case stateAcquiring:
			state = w.acquire()
		case stateProcessing:
			state = w.process()
		}
	}
	w.flush()
}

func (w *worker) paused() workerState {
	for {
		switch w.e.currentOrder() {
		case buddhabrot.Run:
			w.e.unpark()
			return stateAcquiring
		case buddhabrot.Stop:
			return stateStopped
		}
		time.Sleep(w.e.idlePoll)
	}
}

func (w *worker) acquire() workerState {
	for {
		switch w.e.currentOrder() {
		case buddhabrot.Stop:
			return stateStopped
		case buddhabrot.Pause, buddhabrot.FinishBatch:
			w.e.park()
			return statePaused
		case buddhabrot.Run:
			if t := w.e.requestBatch(w.index); t > 0 {
				w.done, w.target = 0, t
				return stateProcessing
			}
		}
		time.Sleep(w.e.budgetPoll)
	}
}

func (w *worker) process() workerState {
	_, span := w.e.tracer.Start(context.Background(), "generator.Engine.batch",
		trace.WithAttributes(
			attribute.Int("worker", w.index),
			attribute.Int64("target", int64(w.target)),
		))
	defer span.End()
	start := time.Now()

	for w.done < w.target {
		if o := w.e.currentOrder(); o == buddhabrot.Pause || o == buddhabrot.Stop {
			span.AddEvent("interrupted", trace.WithAttributes(attribute.String("order", o.String())))
			span.SetAttributes(attribute.Int64("done", int64(w.done)))
			batchesInterrupted.Inc()
			w.flush()
			if o == buddhabrot.Stop {
				return stateStopped
			}
			w.e.park()
			return statePaused
		}
		w.step()
		w.done++
		w.e.threadDone[w.index].Store(w.done)
	}

	span.SetAttributes(
		attribute.Int64("done", int64(w.done)),
		attribute.Int64("accepted", int64(w.stats.accepted)),
	)
	batchesCompleted.Inc()
	batchDuration.Observe(time.Since(start).Seconds())
	w.e.log.Debug("generator: batch done", "worker", w.index, "points", w.done,
		"accepted", w.stats.accepted, "elapsed", time.Since(start))
	w.flush()

	if w.e.currentOrder() == buddhabrot.FinishBatch {
		w.e.park()
		return statePaused
	}
	return stateAcquiring
}

// flush commits the points done so far. It is a no-op without a batch.
func (w *worker) flush() {
	if w.target == 0 && w.done == 0 {
		return
	}
	w.e.saveProgress(w.index, w.done)
	w.stats.publish()
	w.done, w.target = 0, 0
}

// step samples and evaluates one point. Every rejection is fed back as a
// total failure so the sampler moves away from the cell.
func (w *worker) step() {
	e := w.e
	maxIter := w.params.MaxIterations

	e.sampleMu.Lock()
	c, path := e.sampler.Sample()
	e.sampleMu.Unlock()

	if buddhabrot.InsideKnownRegions(c) {
		w.stats.inside++
		w.feedback(path, 0, maxIter)
		return
	}

	orbit := buddhabrot.EvaluateInto(w.orbit, c, maxIter, w.params.EscapeNorm)
	w.orbit = orbit.Points
	switch {
	case !orbit.Escaped:
		w.stats.bounded++
		w.feedback(path, 0, maxIter)
		return
	case !orbit.Accepted(w.params.MinIterations):
		w.stats.short++
		w.feedback(path, 0, maxIter)
		return
	}

	w.stats.accepted++
	w.feedback(path, w.plot(orbit.Points), maxIter)
}

// plot writes every orbit point that falls inside the region, and its
// mirror row when symmetry is on, under one accumulator lock. It returns
// the number of orbit points applied, mirrors excluded.
func (w *worker) plot(points []complex128) uint64 {
	e := w.e
	width, height := e.properties.Width, e.properties.Height

	w.pixels = w.pixels[:0]
	var applied uint64
	for _, z := range points {
		x, y, ok := e.region.Pixel(z, width, height)
		if !ok {
			continue
		}
		w.pixels = append(w.pixels, image.Pt(x, y))
		applied++
		if w.params.Symmetry {
			if my := height - 1 - y; my != y {
				w.pixels = append(w.pixels, image.Pt(x, my))
			}
		}
	}
	e.acc.IncrementAll(w.pixels)
	w.stats.pixelWrites += uint64(len(w.pixels))
	return applied
}

func (w *worker) feedback(p sampler.Path, success, total uint64) {
	w.e.sampleMu.Lock()
	w.e.sampler.Feedback(p, success, total)
	w.e.sampleMu.Unlock()
}
