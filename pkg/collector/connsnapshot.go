package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// ConnectionRow is one row of a connection-snapshot listing: a single
// active TCP or UDP endpoint, plus the owning process name when the tool
// can resolve it.
type ConnectionRow struct {
	Protocol    string `json:"protocol"`
	LocalAddr   string `json:"local_addr"`
	RemoteAddr  string `json:"remote_addr"`
	State       string `json:"state"`
	ProcessName string `json:"process_name"`
}

// ConnectionSnapshotTool abstracts the one-shot connection listing
// utility (spec §4.2 item 5).
type ConnectionSnapshotTool interface {
	ListConnections(ctx context.Context) ([]ConnectionRow, error)
}

// ConnectionSnapshotSummary is the artifact produced by the connection
// snapshot collector.
type ConnectionSnapshotSummary struct {
	TotalRows   int             `json:"total_rows"`
	MatchedRows int             `json:"matched_rows"`
	Connections []ConnectionRow `json:"connections"`
}

// ConnectionSnapshotCollector runs a one-shot invocation that lists
// active TCP/UDP connections, keeping only those whose process name
// references the sample (spec §4.2 item 5: "filter rows containing the
// sample basename case-insensitively, preserve header row"). When no
// sample is set yet every row is kept.
type ConnectionSnapshotCollector struct {
	tool    ConnectionSnapshotTool
	workDir string
	sample  string
}

// NewConnectionSnapshotCollector creates the collector, writing its
// artifact under workDir/connsnapshot/summary.json.
func NewConnectionSnapshotCollector(tool ConnectionSnapshotTool, workDir string) *ConnectionSnapshotCollector {
	return &ConnectionSnapshotCollector{tool: tool, workDir: workDir}
}

func (c *ConnectionSnapshotCollector) Name() string       { return "connsnapshot" }
func (c *ConnectionSnapshotCollector) Available() bool    { return c.tool != nil }
func (c *ConnectionSnapshotCollector) SetSample(s string) { c.sample = s }

func (c *ConnectionSnapshotCollector) Collect(ctx context.Context) Result {
	if c.tool == nil {
		return Result{Status: StatusUnavailable, Error: "connection snapshot tool not configured"}
	}

	rows, err := c.tool.ListConnections(ctx)
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if len(rows) == 0 {
		return Result{Status: StatusNoData}
	}

	matched := filterConnectionRows(rows, c.sample)
	if len(matched) == 0 {
		return Result{Status: StatusNoData}
	}

	summary := ConnectionSnapshotSummary{
		TotalRows:   len(rows),
		MatchedRows: len(matched),
		Connections: matched,
	}

	dir := filepath.Join(c.workDir, "connsnapshot")
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

func filterConnectionRows(rows []ConnectionRow, sampleBasename string) []ConnectionRow {
	if sampleBasename == "" {
		return rows
	}
	needle := strings.ToLower(sampleBasename)
	out := make([]ConnectionRow, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.ProcessName), needle) {
			out = append(out, row)
		}
	}
	return out
}
