// Package metrics records operational metrics of a migration run behind a
// backend-agnostic interface. The default backend discards everything.
package metrics

import "time"

// Metric names understood by backends.
const (
	StepTotal           = "migration_step_total"
	StepDurationSeconds = "migration_step_duration_seconds"
	RecordsTotal        = "migration_records_total"
	BatchesTotal        = "migration_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

// Recorder binds a backend to one job name.
type Recorder struct {
	backend Backend
	job     string
}

// NewRecorder returns a Recorder for job. A nil backend discards all metrics.
func NewRecorder(job string, b Backend) *Recorder {
	if b == nil {
		b = nopBackend{}
	}
	return &Recorder{backend: b, job: job}
}

// Nop returns a Recorder that discards everything.
func Nop() *Recorder { return NewRecorder("", nil) }

// RecordStep measures latency and success/failure of one pipeline stage.
func (r *Recorder) RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    r.job,
		"step":   step,
		"status": status,
	}
	r.backend.IncCounter(StepTotal, 1, lbls)
	r.backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRows increments a record-level counter, e.g. kind "extracted", "skipped", "inserted".
func (r *Recorder) RecordRows(kind, collection string, delta int64) {
	if delta <= 0 {
		return
	}
	r.backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":        r.job,
		"kind":       kind,
		"collection": collection,
	})
}

// RecordBatches increments the number of insert batches sent to the destination.
func (r *Recorder) RecordBatches(delta int64) {
	if delta <= 0 {
		return
	}
	r.backend.IncCounter(BatchesTotal, float64(delta), Labels{"job": r.job})
}

// Flush delegates to the backend.
func (r *Recorder) Flush() error {
	return r.backend.Flush()
}
