package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ProcMonRow is one parsed row of the process-activity tool's converted
// CSV log (spec §4.2 item 2).
type ProcMonRow struct {
	ProcessName string
	Operation   string
	Path        string
}

// ProcessActivityTool abstracts the backing process-monitor binary: it is
// terminated (so its log file stops growing) before its binary log is
// converted to CSV rows. Implementations own the path to the backing log.
type ProcessActivityTool interface {
	Terminate(ctx context.Context, timeout time.Duration) error
	StartFresh(ctx context.Context) error
	ConvertToCSV(ctx context.Context) ([]ProcMonRow, error)
}

const (
	procmonMaxUniquePaths        = 80
	procmonMaxUniqueNetworkPaths = 50
)

var notableFileOps = []string{"Write", "Create", "Delete", "SetDisposition", "SetRename"}
var notableRegistryOps = []string{"SetValue", "CreateKey", "DeleteKey", "DeleteValue"}

// ProcMonSummary is the artifact produced by the process activity
// summarizer (spec §4.2 item 2, §6.5).
type ProcMonSummary struct {
	TotalRows          int      `json:"total_rows"`
	MatchedRows        int      `json:"matched_rows"`
	FileOperations     []string `json:"file_operations"`
	RegistryOperations []string `json:"registry_operations"`
	NetworkOperations  []string `json:"network_operations"`
	ProcessOperations  []string `json:"process_operations"`
}

// ProcMonCollector implements the process activity summarizer.
type ProcMonCollector struct {
	tool              ProcessActivityTool
	subprocessTimeout time.Duration
	workDir           string
	sample            string
}

// NewProcMonCollector creates the collector, writing its artifact under
// workDir/procmon/summary.json.
func NewProcMonCollector(tool ProcessActivityTool, subprocessTimeout time.Duration, workDir string) *ProcMonCollector {
	return &ProcMonCollector{tool: tool, subprocessTimeout: subprocessTimeout, workDir: workDir}
}

func (c *ProcMonCollector) Name() string        { return "procmon" }
func (c *ProcMonCollector) Available() bool     { return c.tool != nil }
func (c *ProcMonCollector) SetSample(s string)  { c.sample = s }

// Prepare terminates any leftover instance of the backing tool and
// starts a fresh one writing to its known backing file (spec §4.3 step
// 6: run before detonation, followed by a short warm-up sleep that the
// caller is responsible for).
func (c *ProcMonCollector) Prepare(ctx context.Context) error {
	if c.tool == nil {
		return nil
	}
	_ = c.tool.Terminate(ctx, c.subprocessTimeout)
	return c.tool.StartFresh(ctx)
}

func (c *ProcMonCollector) Collect(ctx context.Context) Result {
	if c.tool == nil {
		return Result{Status: StatusUnavailable, Error: "process activity tool not configured"}
	}

	// Terminating is best-effort: even if it fails (process already gone,
	// or force-kill itself errors) the log file on disk still reflects
	// whatever was captured so far, so conversion proceeds regardless.
	_ = c.tool.Terminate(ctx, c.subprocessTimeout)

	rows, err := c.tool.ConvertToCSV(ctx)
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if len(rows) == 0 {
		return Result{Status: StatusNoData}
	}

	summary := summarizeProcMonRows(rows, c.sample)

	dir := filepath.Join(c.workDir, "procmon")
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

func summarizeProcMonRows(rows []ProcMonRow, sampleBasename string) ProcMonSummary {
	needle := strings.ToLower(sampleBasename)

	fileSet := newUniqueCappedSet(procmonMaxUniquePaths)
	registrySet := newUniqueCappedSet(procmonMaxUniquePaths)
	networkSet := newUniqueCappedSet(procmonMaxUniqueNetworkPaths)
	processSet := newUniqueCappedSet(procmonMaxUniqueNetworkPaths)

	matched := 0
	for _, row := range rows {
		if needle != "" && !strings.Contains(strings.ToLower(row.ProcessName), needle) {
			continue
		}
		matched++

		switch category := categorizeOperation(row.Operation); category {
		case "registry":
			if containsAny(row.Operation, notableRegistryOps) {
				registrySet.add(row.Path)
			}
		case "network":
			networkSet.add(row.Path)
		case "process":
			processSet.add(row.Path)
		default: // file
			if containsAny(row.Operation, notableFileOps) {
				fileSet.add(row.Path)
			}
		}
	}

	return ProcMonSummary{
		TotalRows:          len(rows),
		MatchedRows:         matched,
		FileOperations:      fileSet.sorted(),
		RegistryOperations:  registrySet.sorted(),
		NetworkOperations:   networkSet.sorted(),
		ProcessOperations:   processSet.sorted(),
	}
}

func categorizeOperation(op string) string {
	lower := strings.ToLower(op)
	switch {
	case strings.HasPrefix(lower, "reg"):
		return "registry"
	case strings.Contains(lower, "tcp"), strings.Contains(lower, "udp"), strings.Contains(lower, "network"):
		return "network"
	case strings.Contains(lower, "process"), strings.Contains(lower, "thread"):
		return "process"
	default:
		return "file"
	}
}

func containsAny(s string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// uniqueCappedSet deduplicates values and keeps at most max of them,
// matching the §4.2 item 2 and item 1 caps applied throughout the
// collector bank.
type uniqueCappedSet struct {
	max    int
	seen   map[string]bool
	values []string
}

func newUniqueCappedSet(max int) *uniqueCappedSet {
	return &uniqueCappedSet{max: max, seen: make(map[string]bool)}
}

func (u *uniqueCappedSet) add(v string) {
	if v == "" || u.seen[v] || len(u.values) >= u.max {
		return
	}
	u.seen[v] = true
	u.values = append(u.values, v)
}

func (u *uniqueCappedSet) sorted() []string {
	out := append([]string(nil), u.values...)
	sort.Strings(out)
	return out
}
