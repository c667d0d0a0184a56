package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// TCPConversation is one retained TCP conversation from the capture file.
type TCPConversation struct {
	SrcIP   string `json:"src_ip"`
	SrcPort string `json:"src_port"`
	DstIP   string `json:"dst_ip"`
	DstPort string `json:"dst_port"`
}

// HTTPRequest is one retained HTTP request parsed from the capture file.
type HTTPRequest struct {
	Host   string `json:"host"`
	URI    string `json:"uri"`
	Method string `json:"method"`
}

// NetworkCaptureTool abstracts the packet capture binary and its
// post-processing query mode (spec §4.2 item 3).
type NetworkCaptureTool interface {
	StartCapture(ctx context.Context, destFile string) error
	StopCapture(ctx context.Context) error
	TCPConversations(ctx context.Context, captureFile string) ([]TCPConversation, error)
	DNSQueryNames(ctx context.Context, captureFile string) ([]string, error)
	HTTPRequests(ctx context.Context, captureFile string) ([]HTTPRequest, error)
}

// NetworkSummary is the artifact produced by the network capture
// collector (spec §4.2 item 3, §6.5). Each query's failure is captured
// as a `<query>_error` string field rather than failing the collector.
type NetworkSummary struct {
	TCPConversations     []TCPConversation `json:"tcp_conversations"`
	TCPConversationsErr  string            `json:"tcp_conversations_error,omitempty"`
	DNSQueries           []string          `json:"dns_queries"`
	DNSQueriesErr        string            `json:"dns_queries_error,omitempty"`
	HTTPRequests         []HTTPRequest     `json:"http_requests"`
	HTTPRequestsErr      string            `json:"http_requests_error,omitempty"`
}

// NetworkCollector implements the network capture collector: it starts
// packet capture before detonation and runs post-processing queries on
// collect.
type NetworkCollector struct {
	tool        NetworkCaptureTool
	workDir     string
	sample      string
	captureFile string
	started     bool
}

// NewNetworkCollector creates the collector. Its capture file lives at
// workDir/network/capture.pcap but is excluded from the result archive
// (spec §4.5 exclusion policy) — only network/summary.json travels.
func NewNetworkCollector(tool NetworkCaptureTool, workDir string) *NetworkCollector {
	return &NetworkCollector{tool: tool, workDir: workDir}
}

func (c *NetworkCollector) Name() string       { return "network" }
func (c *NetworkCollector) Available() bool    { return c.tool != nil }
func (c *NetworkCollector) SetSample(s string) { c.sample = s }

func (c *NetworkCollector) Start(ctx context.Context, _ StartConfig) error {
	if c.tool == nil {
		return nil
	}
	dir := filepath.Join(c.workDir, "network")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	c.captureFile = filepath.Join(dir, "capture.pcap")
	if err := c.tool.StartCapture(ctx, c.captureFile); err != nil {
		return err
	}
	c.started = true
	return nil
}

func (c *NetworkCollector) Stop(ctx context.Context) error {
	if c.tool == nil || !c.started {
		return nil
	}
	c.started = false
	return c.tool.StopCapture(ctx)
}

func (c *NetworkCollector) Collect(ctx context.Context) Result {
	if c.tool == nil {
		return Result{Status: StatusUnavailable, Error: "network capture tool not configured"}
	}
	if c.captureFile == "" {
		return Result{Status: StatusNoData}
	}
	if _, err := os.Stat(c.captureFile); err != nil {
		return Result{Status: StatusNoData}
	}

	var summary NetworkSummary

	if convs, err := c.tool.TCPConversations(ctx, c.captureFile); err != nil {
		summary.TCPConversationsErr = err.Error()
	} else {
		summary.TCPConversations = convs
	}

	if names, err := c.tool.DNSQueryNames(ctx, c.captureFile); err != nil {
		summary.DNSQueriesErr = err.Error()
	} else {
		summary.DNSQueries = dedupeSorted(names)
	}

	if reqs, err := c.tool.HTTPRequests(ctx, c.captureFile); err != nil {
		summary.HTTPRequestsErr = err.Error()
	} else {
		summary.HTTPRequests = reqs
	}

	dir := filepath.Join(c.workDir, "network")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	out := filepath.Join(dir, "summary.json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}

	rel, _ := filepath.Rel(c.workDir, out)
	return Result{Status: StatusOK, Files: []string{rel}}
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
