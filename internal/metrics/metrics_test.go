package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu         sync.Mutex
	counters   []counterCall
	histograms []histCall
	flushCount int
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder("migration", fb)

	r.RecordStep("extract", nil, 2*time.Second)
	r.RecordStep("load", errors.New("boom"), 1500*time.Millisecond)

	require.Len(t, fb.counters, 2)
	require.Len(t, fb.histograms, 2)

	assert.Equal(t, StepTotal, fb.counters[0].name)
	assert.Equal(t, Labels{"job": "migration", "step": "extract", "status": "success"}, fb.counters[0].labels)
	assert.Equal(t, "failure", fb.counters[1].labels["status"])

	assert.Equal(t, StepDurationSeconds, fb.histograms[0].name)
	assert.InDelta(t, 2.0, fb.histograms[0].value, 0.001)
	assert.InDelta(t, 1.5, fb.histograms[1].value, 0.001)
}

func TestRecordRowsAndBatches(t *testing.T) {
	fb := &fakeBackend{}
	r := NewRecorder("migration", fb)

	r.RecordRows("inserted", "employees", 3)
	r.RecordRows("inserted", "employees", 0)
	r.RecordBatches(2)
	r.RecordBatches(-1)

	require.Len(t, fb.counters, 2)
	assert.Equal(t, counterCall{RecordsTotal, 3, Labels{"job": "migration", "kind": "inserted", "collection": "employees"}}, fb.counters[0])
	assert.Equal(t, counterCall{BatchesTotal, 2, Labels{"job": "migration"}}, fb.counters[1])

	require.NoError(t, r.Flush())
	assert.Equal(t, 1, fb.flushCount)
}

func TestNop(t *testing.T) {
	r := Nop()
	r.RecordStep("extract", nil, time.Second)
	r.RecordRows("extracted", "employees", 1)
	assert.NoError(t, r.Flush())
}
