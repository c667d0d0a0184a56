package hostrun

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AgentClient is the host orchestrator's HTTP client for the guest
// agent's JSON/HTTP API (spec §6.2), grounded on tarsy's
// pkg/runbook/github.go http.Client usage.
type AgentClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewAgentClient builds a client against the guest agent's base URL
// (e.g. "http://192.168.56.10:9090").
func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

type apiEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

// AgentStatus mirrors the guest agent's GET /api/status response data
// (spec §6.2).
type AgentStatus struct {
	Status         string          `json:"status"`
	CurrentSample  string          `json:"current_sample"`
	LastError      string          `json:"last_error"`
	StartedAt      string          `json:"started_at"`
	ExecutionCount int             `json:"execution_count"`
	AgentVersion   string          `json:"agent_version"`
	Platform       string          `json:"platform"`
	Collectors     []CollectorInfo `json:"collectors"`
}

// CollectorInfo mirrors collector.Info without importing the collector
// package (the host orchestrator only ever sees it over HTTP).
type CollectorInfo struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// Status calls GET /api/status.
func (a *AgentClient) Status(ctx context.Context) (AgentStatus, error) {
	var status AgentStatus
	_, err := a.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// Execute calls POST /api/execute with the detonation parameters.
func (a *AgentClient) Execute(ctx context.Context, filename string, timeout time.Duration, screenshotInterval int) error {
	body := map[string]any{
		"filename":            filename,
		"timeout":             int(timeout.Seconds()),
		"screenshot_interval": screenshotInterval,
	}
	status, err := a.do(ctx, http.MethodPost, "/api/execute", body, nil)
	if status == http.StatusConflict {
		return ErrAgentBusy
	}
	return err
}

// do performs a JSON round trip against the guest agent and decodes the
// envelope's data field into out when non-nil. It returns the HTTP status
// code so callers can distinguish conflict (409) from other failures.
func (a *AgentClient) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling guest agent %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("decoding guest agent response from %s: %w", path, decodeErr)
	}
	if env.Status == "error" {
		return resp.StatusCode, fmt.Errorf("guest agent %s: %s", path, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding guest agent data from %s: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
