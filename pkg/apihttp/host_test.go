package apihttp

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudlab/detonator/pkg/hostrun"
	"github.com/cloudlab/detonator/pkg/hypervisor"
	"github.com/cloudlab/detonator/pkg/sharedchannel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHostServer(t *testing.T, agentHandler http.HandlerFunc) (*HostServer, string) {
	t.Helper()
	root := t.TempDir()
	channelDir := filepath.Join(root, "shared")
	require.NoError(t, os.MkdirAll(channelDir, 0o755))

	agentServer := httptest.NewServer(agentHandler)
	t.Cleanup(agentServer.Close)

	agent := hostrun.NewAgentClient(agentServer.URL)
	hv := hypervisor.New("/bin/true", "test-vm")
	channel := sharedchannel.New(channelDir)

	orchestrator := hostrun.New(hv, channel, agent, hostrun.Config{
		SamplesDir:      filepath.Join(root, "samples"),
		ReportsRoot:     filepath.Join(root, "reports"),
		PollInterval:    10 * time.Millisecond,
		PollGrace:       time.Second,
		ScreenshotEvery: time.Hour,
	})

	return NewHostServer(orchestrator, agent, filepath.Join(root, "uploads")), root
}

func multipartSampleBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("sample", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("timeout", "1"))
	require.NoError(t, w.WriteField("screenshot_interval", "1"))
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestHostSubmitAccepted(t *testing.T) {
	server, _ := newTestHostServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/execute":
			_, _ = w.Write([]byte(`{"status":"ok","data":{"message":"started","timeout":1}}`))
		case "/api/status":
			_, _ = w.Write([]byte(`{"status":"ok","data":{"status":"idle"}}`))
		}
	})

	body, contentType := multipartSampleBody(t, "sample.exe", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHostStatusUnknownIDReturns404(t *testing.T) {
	server, _ := newTestHostServer(t, func(http.ResponseWriter, *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/status/does-not-exist", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
