package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildSampleProcessSet_TransitiveClosure is spec §8 scenario 4:
// P (sample.exe) spawns Q, Q spawns R; X is unrelated. All of P, Q, R
// must be retained and X must be dropped.
func TestBuildSampleProcessSet_TransitiveClosure(t *testing.T) {
	events := []RawEvent{
		{EventID: 1, Category: CategoryProcessCreate, ProcessID: "P", ParentProcessID: "init", Image: `C:\Users\a\sample.exe`},
		{EventID: 2, Category: CategoryProcessCreate, ProcessID: "Q", ParentProcessID: "P", Image: `C:\Windows\System32\cmd.exe`},
		{EventID: 3, Category: CategoryProcessCreate, ProcessID: "R", ParentProcessID: "Q", Image: `C:\Windows\System32\whoami.exe`},
		{EventID: 4, Category: CategoryProcessCreate, ProcessID: "X", ParentProcessID: "init", Image: `C:\Windows\explorer.exe`},
	}

	set := BuildSampleProcessSet(events, "sample.exe")
	assert.True(t, set["P"])
	assert.True(t, set["Q"])
	assert.True(t, set["R"])
	assert.False(t, set["X"])

	filtered := FilterEventsToSampleSet(events, set, "sample.exe")
	ids := make(map[string]bool)
	for _, e := range filtered {
		ids[e.ProcessID] = true
	}
	assert.True(t, ids["P"])
	assert.True(t, ids["Q"])
	assert.True(t, ids["R"])
	assert.False(t, ids["X"])
}

// TestBuildSampleProcessSet_ClosedUnderConvergence is spec §8's invariant:
// no event with parentProcessId in set and processId not in set survives.
func TestBuildSampleProcessSet_ClosedUnderConvergence(t *testing.T) {
	events := []RawEvent{
		{Category: CategoryProcessCreate, ProcessID: "A", ParentProcessID: "init", Image: "sample.exe"},
		{Category: CategoryProcessCreate, ProcessID: "B", ParentProcessID: "A", Image: "helper1.exe"},
		{Category: CategoryProcessCreate, ProcessID: "C", ParentProcessID: "B", Image: "helper2.exe"},
		{Category: CategoryProcessCreate, ProcessID: "D", ParentProcessID: "C", Image: "helper3.exe"},
	}
	set := BuildSampleProcessSet(events, "sample.exe")
	for _, e := range events {
		if set[e.ParentProcessID] {
			assert.True(t, set[e.ProcessID], "process %s has parent in set but is excluded", e.ProcessID)
		}
	}
}

type fakeEventLogReader struct {
	events []RawEvent
	err    error
}

func (f *fakeEventLogReader) Query(ctx context.Context) ([]RawEvent, error) { return f.events, f.err }
func (f *fakeEventLogReader) Clear(ctx context.Context) error               { return nil }

func TestSysEventsCollector_Collect_WritesSummary(t *testing.T) {
	dir := t.TempDir()
	reader := &fakeEventLogReader{events: []RawEvent{
		{Category: CategoryProcessCreate, ProcessID: "P", ParentProcessID: "init", Image: "sample.exe"},
		{Category: CategoryNetworkConnect, ProcessID: "P", Fields: map[string]string{"dest_ip": "1.2.3.4", "dest_port": "443"}},
	}}
	c := NewSysEventsCollector(reader, dir)
	c.SetSample("sample.exe")

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
	require.Len(t, result.Files, 1)

	data, err := os.ReadFile(filepath.Join(dir, result.Files[0]))
	require.NoError(t, err)

	var summary SysEventsSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Len(t, summary.ProcessesCreated, 1)
	assert.Len(t, summary.NetworkConnections, 1)
}

func TestSysEventsCollector_NoData(t *testing.T) {
	c := NewSysEventsCollector(&fakeEventLogReader{}, t.TempDir())
	c.SetSample("sample.exe")
	result := c.Collect(context.Background())
	assert.Equal(t, StatusNoData, result.Status)
}

func TestSysEventsCollector_Unavailable(t *testing.T) {
	c := NewSysEventsCollector(nil, t.TempDir())
	assert.False(t, c.Available())
	result := c.Collect(context.Background())
	assert.Equal(t, StatusUnavailable, result.Status)
}
