package pipeline

import (
	"sync"
	"time"

	"github.com/locvowork/employee_migration/internal/loader"
)

// State is a stage of a migration run.
type State string

const (
	StateInit         State = "INIT"
	StateExtracting   State = "EXTRACTING"
	StateIndexing     State = "INDEXING"
	StateTransforming State = "TRANSFORMING"
	StateLoading      State = "LOADING"
	StateDone         State = "DONE"
	StateFailed       State = "FAILED"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Snapshot is a point-in-time copy of a run's progress.
type Snapshot struct {
	RunID     string              `json:"run_id"`
	State     State               `json:"state"`
	StartedAt time.Time           `json:"started_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Error     string              `json:"error,omitempty"`
	Loaded    []loader.LoadReport `json:"loaded,omitempty"`
}

// Status tracks the state of the running pipeline so other goroutines can read it.
type Status struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStatus(runID string) *Status {
	now := time.Now().UTC()
	return &Status{snap: Snapshot{RunID: runID, State: StateInit, StartedAt: now, UpdatedAt: now}}
}

// Set moves the run to state. It has no effect once the run is DONE or FAILED.
func (s *Status) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.State.Terminal() {
		return
	}
	s.snap.State = state
	s.snap.UpdatedAt = time.Now().UTC()
}

// Fail moves the run to FAILED and records err.
func (s *Status) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.State = StateFailed
	s.snap.Error = err.Error()
	s.snap.UpdatedAt = time.Now().UTC()
}

// Loaded appends the report of a loaded collection.
func (s *Status) Loaded(r *loader.LoadReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Loaded = append(s.snap.Loaded, *r)
	s.snap.UpdatedAt = time.Now().UTC()
}

// State returns the current state.
func (s *Status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State
}

// Snapshot returns a copy of the current progress.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.snap
	out.Loaded = append([]loader.LoadReport(nil), s.snap.Loaded...)
	return out
}
