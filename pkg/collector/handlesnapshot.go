package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// HandleRow is one open handle: a file, registry key, or named
// synchronization object held by a process.
type HandleRow struct {
	ProcessName string `json:"process_name"`
	HandleType  string `json:"handle_type"`
	Name        string `json:"name"`
}

// HandleSnapshotTool abstracts the one-shot handle listing utility
// (spec §4.2 item 6). ListForProcess lists handles owned by the named
// process; ListAll lists every handle system-wide, used when no sample
// process name is known yet.
type HandleSnapshotTool interface {
	ListForProcess(ctx context.Context, processName string) ([]HandleRow, error)
	ListAll(ctx context.Context) ([]HandleRow, error)
}

// HandleSnapshotSummary is the artifact produced by the handle snapshot
// collector.
type HandleSnapshotSummary struct {
	Scope   string      `json:"scope"` // "process" or "system"
	Handles []HandleRow `json:"handles"`
}

// HandleSnapshotCollector runs a one-shot invocation listing open
// handles for the sample process, falling back to a system-wide listing
// when the sample process name is unknown (spec §4.2 item 6).
type HandleSnapshotCollector struct {
	tool    HandleSnapshotTool
	workDir string
	sample  string
}

// NewHandleSnapshotCollector creates the collector, writing its
// artifact under workDir/handlesnapshot/summary.json.
func NewHandleSnapshotCollector(tool HandleSnapshotTool, workDir string) *HandleSnapshotCollector {
	return &HandleSnapshotCollector{tool: tool, workDir: workDir}
}

func (c *HandleSnapshotCollector) Name() string       { return "handlesnapshot" }
func (c *HandleSnapshotCollector) Available() bool    { return c.tool != nil }
func (c *HandleSnapshotCollector) SetSample(s string) { c.sample = s }

func (c *HandleSnapshotCollector) Collect(ctx context.Context) Result {
	if c.tool == nil {
		return Result{Status: StatusUnavailable, Error: "handle snapshot tool not configured"}
	}

	var (
		handles []HandleRow
		err     error
		scope   string
	)
	if c.sample != "" {
		scope = "process"
		handles, err = c.tool.ListForProcess(ctx, c.sample)
	} else {
		scope = "system"
		handles, err = c.tool.ListAll(ctx)
	}
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if len(handles) == 0 {
		return Result{Status: StatusNoData}
	}

	summary := HandleSnapshotSummary{Scope: scope, Handles: handles}

	dir := filepath.Join(c.workDir, "handlesnapshot")
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
