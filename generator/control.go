package generator

import (
	"sync/atomic"

	"github.com/marben/buddhabrot"
)

// Initiate spawns the workers of a Stopped engine and leaves it Paused.
func (e *Engine) Initiate() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	e.initiate()
}

func (e *Engine) initiate() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.status != buddhabrot.Stopped {
		e.log.Debug("generator: initiate ignored", "status", e.status)
		return
	}

	e.progressMu.Lock()
	n := e.runtime.Threads
	params := e.parameters
	e.threadDone = make([]atomic.Uint64, n)
	e.threadTarget = make([]uint64, n)
	e.progressMu.Unlock()

	e.order.Store(int32(buddhabrot.Pause))
	e.status = buddhabrot.Paused
	e.idle = n

	workersRunning.Add(float64(n))
	e.wg.Add(n)
	for i := range n {
		go e.work(i, params)
	}
	e.log.Info("generator: pool started", "threads", n)
}

// Resume lets a Paused engine run.
func (e *Engine) Resume() {
	e.transition(buddhabrot.Paused, buddhabrot.Run, buddhabrot.Running)
}

// Pause stops a Running engine after the point each worker is on.
func (e *Engine) Pause() {
	e.transition(buddhabrot.Running, buddhabrot.Pause, buddhabrot.Paused)
}

// FinishBatch asks a Running engine to pause once every worker has
// completed its current batch. The status turns Paused when the last
// worker parks.
func (e *Engine) FinishBatch() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.status != buddhabrot.Running || e.currentOrder() != buddhabrot.Run {
		e.log.Debug("generator: finish batch ignored", "status", e.status)
		return
	}
	e.order.Store(int32(buddhabrot.FinishBatch))
	e.settleFinishBatch()
}

func (e *Engine) transition(from buddhabrot.Status, order buddhabrot.Order, to buddhabrot.Status) {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()

	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.status != from {
		e.log.Debug("generator: order ignored", "order", order, "status", e.status)
		return
	}
	e.order.Store(int32(order))
	e.status = to
}

// Stop signals every worker and blocks until all of them have exited.
// It is valid in any status.
func (e *Engine) Stop() {
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	e.stop()
}

func (e *Engine) stop() {
	e.stateMu.Lock()
	if e.status == buddhabrot.Stopped {
		e.stateMu.Unlock()
		return
	}
	e.status = buddhabrot.Stopping
	e.order.Store(int32(buddhabrot.Stop))
	e.stateMu.Unlock()

	e.wg.Wait()

	e.progressMu.Lock()
	n := len(e.threadTarget)
	e.threadDone = nil
	e.threadTarget = nil
	total := e.totalDone
	e.progressMu.Unlock()

	e.stateMu.Lock()
	e.status = buddhabrot.Stopped
	e.idle = 0
	e.order.Store(int32(buddhabrot.Pause))
	e.stateMu.Unlock()

	workersRunning.Sub(float64(n))
	e.log.Info("generator: pool stopped", "threads", n, "total_points", total)
}

// SetParameters replaces the sequence parameters. It is ignored unless
// the engine is Stopped.
func (e *Engine) SetParameters(p buddhabrot.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	if e.Status() != buddhabrot.Stopped {
		e.log.Debug("generator: parameters ignored while not stopped")
		return nil
	}

	e.progressMu.Lock()
	e.parameters = p
	e.progressMu.Unlock()
	e.log.Info("generator: parameters set",
		"max_iterations", p.MaxIterations, "min_iterations", p.MinIterations,
		"escape_norm", p.EscapeNorm, "symmetry", p.Symmetry)
	return nil
}

// SetRuntimeParameters replaces the dispatch parameters and initiates a
// new pool. It is ignored unless the engine is Stopped. The pool window
// restarts, the lifetime count is kept.
func (e *Engine) SetRuntimeParameters(r buddhabrot.RuntimeParameters) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.ctlMu.Lock()
	defer e.ctlMu.Unlock()
	if e.Status() != buddhabrot.Stopped {
		e.log.Debug("generator: runtime parameters ignored while not stopped")
		return nil
	}

	e.progressMu.Lock()
	e.runtime = r
	e.poolDone = 0
	e.progressMu.Unlock()
	e.log.Info("generator: runtime parameters set",
		"threads", r.Threads, "pool_batch_size", r.PoolBatchSize,
		"thread_batch_size", r.ThreadBatchSize, "points_target", r.PointsTarget)

	e.initiate()
	return nil
}

// park records a worker entering its paused state.
func (e *Engine) park() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.idle++
	e.settleFinishBatch()
}

func (e *Engine) unpark() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.idle--
}

// settleFinishBatch turns a pending FinishBatch into Paused once every
// worker is parked. stateMu must be held.
func (e *Engine) settleFinishBatch() {
	if e.currentOrder() != buddhabrot.FinishBatch || e.status != buddhabrot.Running {
		return
	}
	e.progressMu.Lock()
	n := len(e.threadTarget)
	e.progressMu.Unlock()
	if e.idle < n {
		return
	}
	e.order.Store(int32(buddhabrot.Pause))
	e.status = buddhabrot.Paused
}
