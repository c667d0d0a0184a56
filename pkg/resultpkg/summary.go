package resultpkg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudlab/detonator/pkg/collector"
)

const (
	maxConnSnapshotRawChars    = 20000
	maxHandleSnapshotRawChars = 30000
)

// AnalysisSummary is the workDir/analysis_summary.json artifact (spec
// §4.5): an aggregate of every collector's individual summary.
type AnalysisSummary struct {
	SysEvents      json.RawMessage    `json:"sysevents,omitempty"`
	ProcMon        json.RawMessage    `json:"procmon,omitempty"`
	Network        json.RawMessage    `json:"network,omitempty"`
	Screenshot     *screenshotEntry   `json:"screenshot,omitempty"`
	ConnSnapshot   *truncatedTextEntry `json:"connsnapshot,omitempty"`
	HandleSnapshot *truncatedTextEntry `json:"handlesnapshot,omitempty"`
}

type screenshotEntry struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

type truncatedTextEntry struct {
	Raw       string `json:"raw,omitempty"`
	Snapshot  string `json:"snapshot,omitempty"`
	Truncated bool   `json:"truncated"`
}

// BuildAnalysisSummary reads each collector's on-disk summary artifact
// and folds it into the aggregate (spec §4.5). Missing or unreadable
// artifacts are skipped silently — the aggregate is best-effort, the
// per-collector metadata.json entry remains the authoritative status.
func BuildAnalysisSummary(workDir string, statuses map[string]collector.Result) AnalysisSummary {
	var summary AnalysisSummary

	if r, ok := statuses["sysevents"]; ok && r.Status == collector.StatusOK {
		summary.SysEvents = readJSONFile(workDir, r.Files)
	}
	if r, ok := statuses["procmon"]; ok && r.Status == collector.StatusOK {
		summary.ProcMon = readJSONFile(workDir, r.Files)
	}
	if r, ok := statuses["network"]; ok && r.Status == collector.StatusOK {
		summary.Network = readJSONFile(workDir, r.Files)
	}
	if r, ok := statuses["screenshot"]; ok && r.Status == collector.StatusOK {
		summary.Screenshot = &screenshotEntry{Count: len(r.Files), Files: basenames(r.Files)}
	}
	if r, ok := statuses["connsnapshot"]; ok && r.Status == collector.StatusOK {
		summary.ConnSnapshot = buildConnSnapshotEntry(workDir, r.Files)
	}
	if r, ok := statuses["handlesnapshot"]; ok && r.Status == collector.StatusOK {
		summary.HandleSnapshot = buildHandleSnapshotEntry(workDir, r.Files)
	}

	return summary
}

func readJSONFile(workDir string, files []string) json.RawMessage {
	if len(files) == 0 {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(workDir, files[0]))
	if err != nil {
		return nil
	}
	return json.RawMessage(data)
}

func basenames(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, filepath.Base(f))
	}
	return out
}

// buildConnSnapshotEntry renders the connection-snapshot collector's
// structured rows back into CSV text, truncated to the first 20 000
// characters (spec §4.5: "the first 20 000 characters of the CSV are
// embedded under raw").
func buildConnSnapshotEntry(workDir string, files []string) *truncatedTextEntry {
	if len(files) == 0 {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(workDir, files[0]))
	if err != nil {
		return nil
	}
	var parsed collector.ConnectionSnapshotSummary
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil
	}

	var b strings.Builder
	b.WriteString("protocol,local_addr,remote_addr,state,process_name\n")
	for _, row := range parsed.Connections {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s\n", row.Protocol, row.LocalAddr, row.RemoteAddr, row.State, row.ProcessName)
	}
	return truncate(b.String(), maxConnSnapshotRawChars, true)
}

// buildHandleSnapshotEntry renders the handle-snapshot collector's rows
// into text, truncated to the first 30 000 characters with a truncation
// marker (spec §4.5).
func buildHandleSnapshotEntry(workDir string, files []string) *truncatedTextEntry {
	if len(files) == 0 {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(workDir, files[0]))
	if err != nil {
		return nil
	}
	var parsed collector.HandleSnapshotSummary
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil
	}

	var b strings.Builder
	for _, h := range parsed.Handles {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", h.ProcessName, h.HandleType, h.Name)
	}
	return truncate(b.String(), maxHandleSnapshotRawChars, false)
}

func truncate(text string, max int, raw bool) *truncatedTextEntry {
	truncated := len(text) > max
	if truncated {
		text = text[:max]
	}
	if raw {
		return &truncatedTextEntry{Raw: text, Truncated: truncated}
	}
	return &truncatedTextEntry{Snapshot: text, Truncated: truncated}
}
