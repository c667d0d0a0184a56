package agentstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StartsIdle(t *testing.T) {
	s := New(time.Now())
	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, 0, snap.ExecutionCount)
}

func TestBeginExecution_ConflictWhenExecuting(t *testing.T) {
	s := New(time.Now())
	require.NoError(t, s.BeginExecution("sample.exe"))

	err := s.BeginExecution("other.exe")
	assert.ErrorIs(t, err, ErrConflict)

	// State must be unchanged by the rejected transition (spec §8).
	snap := s.Snapshot()
	assert.Equal(t, StatusExecuting, snap.Status)
	assert.Equal(t, "sample.exe", snap.CurrentSample)
}

func TestFullLifecycle_IncrementsCounterOnce(t *testing.T) {
	s := New(time.Now())
	require.NoError(t, s.BeginExecution("sample.exe"))
	require.NoError(t, s.BeginCollecting())
	s.FinishIdle()

	snap := s.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, 1, snap.ExecutionCount)
	assert.Empty(t, snap.CurrentSample)
}

func TestFinishError_IncrementsCounterAndRecordsMessage(t *testing.T) {
	s := New(time.Now())
	require.NoError(t, s.BeginExecution("sample.exe"))
	s.FinishError("sample not found in shared channel")

	snap := s.Snapshot()
	assert.Equal(t, StatusError, snap.Status)
	assert.Equal(t, 1, snap.ExecutionCount)
	assert.Equal(t, "sample not found in shared channel", snap.LastError)
}

func TestRequireNotExecuting(t *testing.T) {
	s := New(time.Now())
	require.NoError(t, s.RequireNotExecuting())

	require.NoError(t, s.BeginExecution("sample.exe"))
	assert.ErrorIs(t, s.RequireNotExecuting(), ErrConflict)
}

func TestBeginCollecting_RequiresExecuting(t *testing.T) {
	s := New(time.Now())
	assert.ErrorIs(t, s.BeginCollecting(), ErrConflict)
}
