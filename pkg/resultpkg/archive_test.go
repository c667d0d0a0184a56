package resultpkg

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudlab/detonator/pkg/collector"
)

func writeWorkDirFile(t *testing.T, workDir, rel, content string) {
	t.Helper()
	full := filepath.Join(workDir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestPackager_Package_ExcludesRawExtensions(t *testing.T) {
	workDir := t.TempDir()
	writeWorkDirFile(t, workDir, "sysevents/summary.json", `{"processes_created":[]}`)
	writeWorkDirFile(t, workDir, "network/summary.json", `{"tcp_conversations":[]}`)
	writeWorkDirFile(t, workDir, "network/capture.pcap", "raw packet bytes")
	writeWorkDirFile(t, workDir, "procmon/raw.csv", "process,operation,path")

	statuses := map[string]collector.Result{
		"sysevents": {Status: collector.StatusOK, Files: []string{"sysevents/summary.json"}},
		"network":   {Status: collector.StatusOK, Files: []string{"network/summary.json", "network/capture.pcap"}},
		"procmon":   {Status: collector.StatusOK, Files: []string{"procmon/raw.csv"}},
	}

	p := NewPackager("detonator/test")
	archivePath, err := p.Package(context.Background(), workDir, "sample.exe", statuses)
	require.NoError(t, err)

	r, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "sysevents/summary.json")
	assert.Contains(t, names, "network/summary.json")
	assert.Contains(t, names, "metadata.json")
	assert.Contains(t, names, "analysis_summary.json")
	assert.NotContains(t, names, "network/capture.pcap")
	assert.NotContains(t, names, "procmon/raw.csv")
}

func TestPackager_Package_IsDeterministic(t *testing.T) {
	workDir := t.TempDir()
	writeWorkDirFile(t, workDir, "sysevents/summary.json", `{"processes_created":[]}`)
	statuses := map[string]collector.Result{
		"sysevents": {Status: collector.StatusOK, Files: []string{"sysevents/summary.json"}},
	}

	p := NewPackager("detonator/test")
	archivePath1, err := p.Package(context.Background(), workDir, "sample.exe", statuses)
	require.NoError(t, err)
	data1, err := os.ReadFile(archivePath1)
	require.NoError(t, err)
	require.NoError(t, os.Remove(archivePath1))

	archivePath2, err := p.Package(context.Background(), workDir, "sample.exe", statuses)
	require.NoError(t, err)
	data2, err := os.ReadFile(archivePath2)
	require.NoError(t, err)

	assert.Equal(t, data1, data2)
}

func TestBuildMetadata_SortsCollectorsByName(t *testing.T) {
	statuses := map[string]collector.Result{
		"network":   {Status: collector.StatusOK},
		"sysevents": {Status: collector.StatusNoData},
	}
	meta := BuildMetadata("sample.exe", "detonator/test", time.Now(), statuses)
	require.Len(t, meta.Collectors, 2)
	assert.Equal(t, "network", meta.Collectors[0].Name)
	assert.Equal(t, "sysevents", meta.Collectors[1].Name)
}

func TestBuildAnalysisSummary_ScreenshotCountsFiles(t *testing.T) {
	statuses := map[string]collector.Result{
		"screenshot": {Status: collector.StatusOK, Files: []string{"screenshots/screenshot_001_x.png", "screenshots/screenshot_002_x.png"}},
	}
	summary := BuildAnalysisSummary(t.TempDir(), statuses)
	require.NotNil(t, summary.Screenshot)
	assert.Equal(t, 2, summary.Screenshot.Count)
}

func TestBuildAnalysisSummary_ConnSnapshotRendersUntruncated(t *testing.T) {
	workDir := t.TempDir()
	connSummary := collector.ConnectionSnapshotSummary{
		TotalRows:   1,
		MatchedRows: 1,
		Connections: []collector.ConnectionRow{{Protocol: "tcp", LocalAddr: "10.0.0.1:1234", RemoteAddr: "1.2.3.4:443", State: "ESTABLISHED", ProcessName: "sample.exe"}},
	}
	data, err := json.Marshal(connSummary)
	require.NoError(t, err)
	writeWorkDirFile(t, workDir, "connsnapshot/summary.json", string(data))

	statuses := map[string]collector.Result{
		"connsnapshot": {Status: collector.StatusOK, Files: []string{"connsnapshot/summary.json"}},
	}
	summary := BuildAnalysisSummary(workDir, statuses)
	require.NotNil(t, summary.ConnSnapshot)
	assert.Contains(t, summary.ConnSnapshot.Raw, "sample.exe")
	assert.False(t, summary.ConnSnapshot.Truncated)
}
