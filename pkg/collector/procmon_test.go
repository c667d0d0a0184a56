package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcMonTool struct {
	rows           []ProcMonRow
	terminateErr   error
	startFreshErr  error
	convertErr     error
	terminateCall  int
	startFreshCall int
}

func (f *fakeProcMonTool) Terminate(ctx context.Context, timeout time.Duration) error {
	f.terminateCall++
	return f.terminateErr
}

func (f *fakeProcMonTool) StartFresh(ctx context.Context) error {
	f.startFreshCall++
	return f.startFreshErr
}

func (f *fakeProcMonTool) ConvertToCSV(ctx context.Context) ([]ProcMonRow, error) {
	return f.rows, f.convertErr
}

func TestProcMonCollector_FiltersAndBucketsBySample(t *testing.T) {
	tool := &fakeProcMonTool{rows: []ProcMonRow{
		{ProcessName: "sample.exe", Operation: "WriteFile", Path: `C:\Users\a\dropped.dll`},
		{ProcessName: "sample.exe", Operation: "QueryOpen", Path: `C:\Users\a\dropped.dll`}, // not notable, dropped
		{ProcessName: "sample.exe", Operation: "RegSetValue", Path: `HKCU\Run\sample`},
		{ProcessName: "sample.exe", Operation: "RegQueryValue", Path: `HKCU\Run\other`}, // not notable, dropped
		{ProcessName: "unrelated.exe", Operation: "WriteFile", Path: `C:\other.txt`},     // not matched
	}}

	c := NewProcMonCollector(tool, time.Second, t.TempDir())
	c.SetSample("sample.exe")

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, tool.terminateCall)
}

func TestSummarizeProcMonRows_CapsUniquePaths(t *testing.T) {
	var rows []ProcMonRow
	for i := 0; i < 100; i++ {
		rows = append(rows, ProcMonRow{ProcessName: "sample.exe", Operation: "CreateFile", Path: uniquePath(i)})
	}
	summary := summarizeProcMonRows(rows, "sample.exe")
	assert.Equal(t, 100, summary.TotalRows)
	assert.Equal(t, 100, summary.MatchedRows)
	assert.Len(t, summary.FileOperations, procmonMaxUniquePaths)
}

func TestSummarizeProcMonRows_NetworkCapLower(t *testing.T) {
	var rows []ProcMonRow
	for i := 0; i < 100; i++ {
		rows = append(rows, ProcMonRow{ProcessName: "sample.exe", Operation: "TCP Send", Path: uniquePath(i)})
	}
	summary := summarizeProcMonRows(rows, "sample.exe")
	assert.Len(t, summary.NetworkOperations, procmonMaxUniqueNetworkPaths)
}

func uniquePath(i int) string {
	return "path-" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func TestProcMonCollector_Unavailable(t *testing.T) {
	c := NewProcMonCollector(nil, time.Second, t.TempDir())
	assert.False(t, c.Available())
	assert.Equal(t, StatusUnavailable, c.Collect(context.Background()).Status)
}

func TestProcMonCollector_PrepareTerminatesLeftoverThenStartsFresh(t *testing.T) {
	tool := &fakeProcMonTool{}
	c := NewProcMonCollector(tool, time.Second, t.TempDir())
	require.NoError(t, c.Prepare(context.Background()))
	assert.Equal(t, 1, tool.terminateCall)
	assert.Equal(t, 1, tool.startFreshCall)
}

func TestProcMonCollector_NoData(t *testing.T) {
	c := NewProcMonCollector(&fakeProcMonTool{}, time.Second, t.TempDir())
	assert.Equal(t, StatusNoData, c.Collect(context.Background()).Status)
}
