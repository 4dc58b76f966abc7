package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// samplesTotal counts sampled points by outcome
	samplesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddhabrot_samples_total",
		Help: "Sampled points by outcome",
	}, []string{"result"})

	// pixelWritesTotal counts accumulator increments, mirrored ones included
	pixelWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "buddhabrot_pixel_writes_total",
		Help: "Accumulator increments",
	})

	// batchesTotal counts worker batches by how they ended
	batchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buddhabrot_batches_total",
		Help: "Worker batches by outcome",
	}, []string{"outcome"}) // "completed" or "interrupted"

	// batchDuration tracks how long one worker batch takes
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "buddhabrot_batch_duration_seconds",
		Help:    "Worker batch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~33s
	})

	// workersRunning is the number of live worker goroutines
	workersRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "buddhabrot_workers",
		Help: "Live worker goroutines",
	})
)

var (
	samplesAccepted = samplesTotal.WithLabelValues("accepted")
	samplesInside   = samplesTotal.WithLabelValues("inside")
	samplesBounded  = samplesTotal.WithLabelValues("bounded")
	samplesShort    = samplesTotal.WithLabelValues("short")

	batchesCompleted   = batchesTotal.WithLabelValues("completed")
	batchesInterrupted = batchesTotal.WithLabelValues("interrupted")
)

// batchStats is accumulated by a worker and published once per batch.
type batchStats struct {
	accepted, inside, bounded, short uint64
	pixelWrites                      uint64
}

func (s *batchStats) publish() {
	samplesAccepted.Add(float64(s.accepted))
	samplesInside.Add(float64(s.inside))
	samplesBounded.Add(float64(s.bounded))
	samplesShort.Add(float64(s.short))
	pixelWritesTotal.Add(float64(s.pixelWrites))
	*s = batchStats{}
}
