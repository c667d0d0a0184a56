package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnSnapshotTool struct {
	rows []ConnectionRow
	err  error
}

func (f *fakeConnSnapshotTool) ListConnections(ctx context.Context) ([]ConnectionRow, error) {
	return f.rows, f.err
}

func TestConnectionSnapshotCollector_FiltersBySample(t *testing.T) {
	tool := &fakeConnSnapshotTool{rows: []ConnectionRow{
		{ProcessName: "sample.exe", RemoteAddr: "1.2.3.4:443", Protocol: "tcp"},
		{ProcessName: "svchost.exe", RemoteAddr: "8.8.8.8:53", Protocol: "udp"},
		{ProcessName: "SAMPLE.EXE", RemoteAddr: "5.6.7.8:80", Protocol: "tcp"},
	}}
	c := NewConnectionSnapshotCollector(tool, t.TempDir())
	c.SetSample("sample.exe")

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
}

func TestFilterConnectionRows_CaseInsensitive(t *testing.T) {
	rows := []ConnectionRow{{ProcessName: "Sample.EXE"}, {ProcessName: "other.exe"}}
	out := filterConnectionRows(rows, "sample.exe")
	assert.Len(t, out, 1)
}

func TestFilterConnectionRows_NoSampleKeepsAll(t *testing.T) {
	rows := []ConnectionRow{{ProcessName: "a"}, {ProcessName: "b"}}
	assert.Equal(t, rows, filterConnectionRows(rows, ""))
}

func TestConnectionSnapshotCollector_NoData(t *testing.T) {
	c := NewConnectionSnapshotCollector(&fakeConnSnapshotTool{}, t.TempDir())
	assert.Equal(t, StatusNoData, c.Collect(context.Background()).Status)
}

func TestConnectionSnapshotCollector_NoMatchesIsNoData(t *testing.T) {
	tool := &fakeConnSnapshotTool{rows: []ConnectionRow{{ProcessName: "unrelated.exe"}}}
	c := NewConnectionSnapshotCollector(tool, t.TempDir())
	c.SetSample("sample.exe")
	assert.Equal(t, StatusNoData, c.Collect(context.Background()).Status)
}

func TestConnectionSnapshotCollector_Unavailable(t *testing.T) {
	c := NewConnectionSnapshotCollector(nil, t.TempDir())
	assert.False(t, c.Available())
	assert.Equal(t, StatusUnavailable, c.Collect(context.Background()).Status)
}
