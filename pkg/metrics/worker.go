package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records batches processed by background workers.
type WorkerMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pdv_worker_batch_duration_seconds",
		Help:    "Duration of worker batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"worker"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_worker_processed_total",
		Help: "Messages handled successfully by workers.",
	}, []string{"worker"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdv_worker_failed_total",
		Help: "Messages that failed in workers.",
	}, []string{"worker"})
	reg.MustRegister(duration, processed, failed)
	return &WorkerMetrics{duration: duration, processed: processed, failed: failed}
}

// ObserveBatch records the duration of one batch.
func (w *WorkerMetrics) ObserveBatch(worker string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(worker)).Observe(duration.Seconds())
}

// AddProcessed increments the processed counter by n.
func (w *WorkerMetrics) AddProcessed(worker string, n int) {
	if w == nil || w.processed == nil || n <= 0 {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(worker)).Add(float64(n))
}

// IncFailed increments the failure counter.
func (w *WorkerMetrics) IncFailed(worker string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(worker)).Inc()
}
