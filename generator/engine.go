// Package generator runs a pool of workers that sample points, iterate
// their orbits and accumulate the escaping ones into a density image.
//
// An Engine moves between Stopped, Paused, Running and Stopping. Workers
// poll a shared order at bounded intervals, so pausing or stopping takes
// effect within one point evaluation or one poll interval.
package generator

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/marben/buddhabrot"
	"github.com/marben/buddhabrot/density"
	"github.com/marben/buddhabrot/sampler"
)

// ErrSizeMismatch is returned when the accumulator does not match the
// image size of the properties.
var ErrSizeMismatch = errors.New("accumulator size does not match properties")

const (
	DefaultIdlePoll   = 100 * time.Millisecond
	DefaultBudgetPoll = time.Second
)

// Option configures an Engine during creation.
type Option func(*options)

type options struct {
	sampler    sampler.Sampler
	idlePoll   time.Duration
	budgetPoll time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

func defaultOptions() options {
	return options{
		idlePoll:   DefaultIdlePoll,
		budgetPoll: DefaultBudgetPoll,
	}
}

// WithSampler replaces the sampler the properties would select.
func WithSampler(s sampler.Sampler) Option {
	return func(o *options) {
		o.sampler = s
	}
}

// WithPollIntervals sets how often a paused worker checks for orders and
// how often a worker without budget retries.
func WithPollIntervals(idle, budget time.Duration) Option {
	return func(o *options) {
		if idle > 0 {
			o.idlePoll = idle
		}
		if budget > 0 {
			o.budgetPoll = budget
		}
	}
}

// WithLogger overrides buddhabrot.Logger for this engine.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// Engine owns the worker pool, the batch budget, the accumulator and one
// sampler.
type Engine struct {
	acc        *density.Accumulator
	properties buddhabrot.Properties
	region     buddhabrot.Region

	// changed only while Stopped, under progressMu
	parameters buddhabrot.Parameters
	runtime    buddhabrot.RuntimeParameters

	// sampleMu serializes Sample and Feedback
	sampleMu sync.Mutex
	sampler  sampler.Sampler

	// ctlMu serializes control calls. Stop holds it while joining workers.
	ctlMu sync.Mutex
	wg    sync.WaitGroup

	// stateMu guards status, idle and writes to order.
	stateMu sync.Mutex
	status  buddhabrot.Status
	idle    int
	order   atomic.Int32

	// progressMu guards the budget. threadDone is written by its worker
	// only, and read atomically for snapshots.
	progressMu   sync.Mutex
	threadDone   []atomic.Uint64
	threadTarget []uint64
	poolDone     uint64
	totalDone    uint64

	idlePoll   time.Duration
	budgetPoll time.Duration
	log        *slog.Logger
	tracer     trace.Tracer
}

// New validates its inputs, builds the sampler and initiates the pool.
// The returned engine is Paused.
func New(acc *density.Accumulator, props buddhabrot.Properties, params buddhabrot.Parameters,
	runtime buddhabrot.RuntimeParameters, opts ...Option) (*Engine, error) {
	if err := props.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := runtime.Validate(); err != nil {
		return nil, err
	}
	if acc.Width() != props.Width || acc.Height() != props.Height {
		return nil, fmt.Errorf("%w: %dx%d, want %dx%d",
			ErrSizeMismatch, acc.Width(), acc.Height(), props.Width, props.Height)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.sampler == nil {
		o.sampler = sampler.New(props)
	}
	if o.logger == nil {
		o.logger = buddhabrot.Logger()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("github.com/marben/buddhabrot/generator")
	}

	e := &Engine{
		acc:        acc,
		properties: props,
		region:     props.Region(),
		parameters: params,
		runtime:    runtime,
		sampler:    o.sampler,
		status:     buddhabrot.Stopped,
		idlePoll:   o.idlePoll,
		budgetPoll: o.budgetPoll,
		log:        o.logger,
		tracer:     o.tracer,
	}
	e.order.Store(int32(buddhabrot.Pause))
	e.Initiate()
	return e, nil
}

var _ buddhabrot.Generator = (*Engine)(nil)

func (e *Engine) Accumulator() *density.Accumulator { return e.acc }

// Image renders the accumulator.
func (e *Engine) Image() *image.RGBA { return e.acc.RGBA() }

func (e *Engine) Properties() buddhabrot.Properties { return e.properties }

func (e *Engine) Parameters() buddhabrot.Parameters {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	return e.parameters
}

func (e *Engine) RuntimeParameters() buddhabrot.RuntimeParameters {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	return e.runtime
}

func (e *Engine) Status() buddhabrot.Status {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.status
}

// Progress returns one done/target pair per worker. It is empty while
// the engine is Stopped.
func (e *Engine) Progress() []buddhabrot.Progress {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()

	out := make([]buddhabrot.Progress, len(e.threadTarget))
	for i := range out {
		out[i] = buddhabrot.Progress{Done: e.threadDone[i].Load(), Target: e.threadTarget[i]}
	}
	return out
}

// PoolProgress is the number of points committed in the current pool
// window against the pool batch size.
func (e *Engine) PoolProgress() buddhabrot.Progress {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	return buddhabrot.Progress{Done: e.poolDone, Target: e.runtime.PoolBatchSize}
}

// TotalProgress is the number of points committed since creation against
// the lifetime target.
func (e *Engine) TotalProgress() buddhabrot.Progress {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	return buddhabrot.Progress{Done: e.totalDone, Target: e.runtime.PointsTarget}
}

func (e *Engine) currentOrder() buddhabrot.Order {
	return buddhabrot.Order(e.order.Load())
}
