package generator

// requestBatch reserves the next batch of worker i. The batch never
// exceeds what is left of the pool window or of the lifetime target once
// every other worker's in-flight batch is accounted for. Zero means no
// budget is available right now.
func (e *Engine) requestBatch(i int) uint64 {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()

	var inflight uint64
	for j, t := range e.threadTarget {
		if j != i {
			inflight += t
		}
	}

	target := e.runtime.ThreadBatchSize
	if pool := e.runtime.PoolBatchSize; pool != 0 {
		target = min(target, remaining(pool, e.poolDone+inflight))
	}
	if points := e.runtime.PointsTarget; points != 0 {
		target = min(target, remaining(points, e.totalDone+inflight))
	}

	e.threadTarget[i] = target
	e.threadDone[i].Store(0)
	return target
}

// saveProgress commits done points of worker i and releases its batch.
// The pool window starts over once it is full.
func (e *Engine) saveProgress(i int, done uint64) {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()

	e.poolDone += done
	e.totalDone += done
	if pool := e.runtime.PoolBatchSize; pool != 0 && e.poolDone >= pool {
		e.poolDone = 0
	}
	e.threadDone[i].Store(0)
	e.threadTarget[i] = 0
}

func remaining(budget, used uint64) uint64 {
	if used >= budget {
		return 0
	}
	return budget - used
}
