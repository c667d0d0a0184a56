package analyzer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// aiAnalysisDir is the subdirectory the analyzer exclusively owns under
// a report directory (spec §3: "the multi-agent analyzer writes only
// under ai_analysis/").
const aiAnalysisDir = "ai_analysis"

// Persist writes ai_report.json, one <tool>_analysis.json per per-tool
// result, and threat_report.json (the raw summarizer response) under
// reportDir/ai_analysis (spec §4.7 step 6, §6.5).
func Persist(reportDir string, results []ToolResult, report Report, rawSummary string) error {
	dir := filepath.Join(reportDir, aiAnalysisDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ai_analysis directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, "ai_report.json"), report); err != nil {
		return err
	}

	for _, r := range results {
		path := filepath.Join(dir, r.Tool+"_analysis.json")
		if err := writeJSON(path, r); err != nil {
			return err
		}
	}

	threatReportPath := filepath.Join(dir, "threat_report.json")
	if rawSummary == "" {
		if err := writeJSON(threatReportPath, report); err != nil {
			return err
		}
	} else if err := os.WriteFile(threatReportPath, []byte(rawSummary), 0o644); err != nil {
		return fmt.Errorf("writing threat_report.json: %w", err)
	}

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
