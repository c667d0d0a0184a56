package hostrun

import (
	"archive/zip"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudlab/detonator/pkg/hypervisor"
	"github.com/cloudlab/detonator/pkg/sharedchannel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(t *testing.T, agentHandler http.HandlerFunc) (*Orchestrator, *sharedchannel.Channel, string) {
	t.Helper()
	root := t.TempDir()
	channelDir := filepath.Join(root, "shared")
	samplesDir := filepath.Join(root, "samples")
	reportsRoot := filepath.Join(root, "reports")
	require.NoError(t, os.MkdirAll(channelDir, 0o755))
	require.NoError(t, os.MkdirAll(samplesDir, 0o755))
	require.NoError(t, os.MkdirAll(reportsRoot, 0o755))

	server := httptest.NewServer(agentHandler)
	t.Cleanup(server.Close)

	channel := sharedchannel.New(channelDir)
	agent := NewAgentClient(server.URL)
	hv := hypervisor.New("/bin/true", "test-vm")

	o := New(hv, channel, agent, Config{
		SamplesDir:      samplesDir,
		ReportsRoot:     reportsRoot,
		PollInterval:    10 * time.Millisecond,
		PollGrace:       1 * time.Second,
		ScreenshotEvery: time.Hour,
	})
	return o, channel, root
}

func idleAgentHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/execute":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","data":{"message":"started","timeout":1}}`))
		case "/api/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","data":{"status":"idle","execution_count":1}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}
}

func TestSubmitRejectsConcurrentAnalysis(t *testing.T) {
	blocker := make(chan struct{})
	o, _, root := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/execute" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","data":{"message":"started","timeout":1}}`))
			return
		}
		<-blocker
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","data":{"status":"idle"}}`))
	})
	defer close(blocker)

	samplePath := filepath.Join(root, "sample.exe")
	require.NoError(t, os.WriteFile(samplePath, []byte("x"), 0o644))

	_, err := o.Submit(t.Context(), samplePath, time.Second, 2)
	require.NoError(t, err)

	_, err = o.Submit(t.Context(), samplePath, time.Second, 2)
	assert.ErrorIs(t, err, ErrAnalysisRunning)
}

func TestSubmitHappyPathCompletesAndExtractsArchive(t *testing.T) {
	o, channel, root := newTestOrchestrator(t, idleAgentHandler(t).ServeHTTP)

	samplePath := filepath.Join(root, "hello.exe")
	require.NoError(t, os.WriteFile(samplePath, []byte{}, 0o644))

	archiveName := sharedchannel.ResultArchiveName("hello", time.Now())
	writeTestArchive(t, channel.Path(archiveName), map[string]string{
		"metadata.json":          `{"sample":"hello.exe"}`,
		"analysis_summary.json": `{}`,
	})

	result, err := o.Submit(t.Context(), samplePath, 0, 2)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		res, getErr := o.Get(result.AnalysisID)
		return getErr == nil && res.Status != StatusRunning && res.Status != StatusPending
	}, 3*time.Second, 10*time.Millisecond)

	final, err := o.Get(result.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, final.Status)
	assert.Contains(t, final.Files, "metadata.json")

	manifestPath := filepath.Join(final.ReportDir, "analysis_manifest.json")
	_, statErr := os.Stat(manifestPath)
	assert.NoError(t, statErr)
}

func TestCleanupRefusesRunningAnalysis(t *testing.T) {
	blocker := make(chan struct{})
	o, _, root := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/execute" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok","data":{"message":"started","timeout":1}}`))
			return
		}
		<-blocker
	})
	defer close(blocker)

	samplePath := filepath.Join(root, "sample.exe")
	require.NoError(t, os.WriteFile(samplePath, []byte("x"), 0o644))

	result, err := o.Submit(t.Context(), samplePath, time.Second, 2)
	require.NoError(t, err)

	err = o.Cleanup(result.AnalysisID)
	assert.Error(t, err)
}

func writeTestArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}
