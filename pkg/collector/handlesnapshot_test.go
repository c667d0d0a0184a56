package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandleSnapshotTool struct {
	processRows, allRows []HandleRow
	processErr, allErr   error
	processCalls, allCalls int
}

func (f *fakeHandleSnapshotTool) ListForProcess(ctx context.Context, name string) ([]HandleRow, error) {
	f.processCalls++
	return f.processRows, f.processErr
}

func (f *fakeHandleSnapshotTool) ListAll(ctx context.Context) ([]HandleRow, error) {
	f.allCalls++
	return f.allRows, f.allErr
}

func TestHandleSnapshotCollector_UsesProcessScopeWhenSampleKnown(t *testing.T) {
	tool := &fakeHandleSnapshotTool{processRows: []HandleRow{{ProcessName: "sample.exe", HandleType: "file", Name: `C:\a.txt`}}}
	c := NewHandleSnapshotCollector(tool, t.TempDir())
	c.SetSample("sample.exe")

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, tool.processCalls)
	assert.Equal(t, 0, tool.allCalls)
}

func TestHandleSnapshotCollector_FallsBackToSystemScope(t *testing.T) {
	tool := &fakeHandleSnapshotTool{allRows: []HandleRow{{ProcessName: "svchost.exe", HandleType: "mutex", Name: "Global\\foo"}}}
	c := NewHandleSnapshotCollector(tool, t.TempDir())

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, tool.allCalls)
	assert.Equal(t, 0, tool.processCalls)
}

func TestHandleSnapshotCollector_NoData(t *testing.T) {
	c := NewHandleSnapshotCollector(&fakeHandleSnapshotTool{}, t.TempDir())
	assert.Equal(t, StatusNoData, c.Collect(context.Background()).Status)
}

func TestHandleSnapshotCollector_Unavailable(t *testing.T) {
	c := NewHandleSnapshotCollector(nil, t.TempDir())
	assert.False(t, c.Available())
	assert.Equal(t, StatusUnavailable, c.Collect(context.Background()).Status)
}
