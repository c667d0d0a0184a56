// Package toolload implements C6: per-tool artifact loaders that read a
// collector's summary file under a report directory's <tool>/
// subdirectory, serialize it to text, and clip it to a size budget before
// it is handed to the multi-agent analyzer (C7) as an LLM prompt payload
// (spec §4.6).
package toolload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxToolPayloadChars is the hard clip applied to every loaded payload
// (spec §4.6, §8 boundary behavior).
const MaxToolPayloadChars = 6000

const truncationSuffix = "\n... [truncated]"

// NoDataMessage is the human-readable sentence returned when a tool's
// backing artifact is missing or empty (spec §4.6).
func NoDataMessage(tool string) string {
	return fmt.Sprintf("No %s data was collected for this sample.", tool)
}

// Result is what a Loader produces: the text to embed in the per-tool
// LLM prompt, and whether real data backed it.
type Result struct {
	PayloadText string
	HasData     bool
}

// Loader reads one tool's artifact under reportDir/<tool>/ and renders
// it to prompt-ready text (spec §4.6).
type Loader func(reportDir string) Result

// clip enforces MaxToolPayloadChars, appending a truncation suffix when
// the text is cut (spec §8: "Loader payloads strictly <= 6000 characters
// (with marker when truncated)").
func clip(text string) string {
	if len(text) <= MaxToolPayloadChars {
		return text
	}
	cut := MaxToolPayloadChars - len(truncationSuffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + truncationSuffix
}

// JSONLoader builds a Loader for a tool whose artifact is a JSON file:
// the file is read, compacted (whitespace stripped), and clipped. Missing
// or empty files report HasData=false (spec §4.6).
func JSONLoader(tool, relPath string) Loader {
	return func(reportDir string) Result {
		data, ok := readArtifact(reportDir, relPath)
		if !ok || len(data) == 0 {
			return Result{PayloadText: NoDataMessage(tool)}
		}

		var compacted strings.Builder
		if err := json.Compact(&compacted, data); err != nil {
			// Malformed JSON on disk: fall back to the raw bytes rather
			// than failing the loader outright.
			return Result{PayloadText: clip(string(data)), HasData: true}
		}
		return Result{PayloadText: clip(compacted.String()), HasData: true}
	}
}

// TextLoader builds a Loader for a tool whose artifact is plain text: the
// file is read verbatim (trimmed) and clipped.
func TextLoader(tool, relPath string) Loader {
	return func(reportDir string) Result {
		data, ok := readArtifact(reportDir, relPath)
		text := strings.TrimSpace(string(data))
		if !ok || text == "" {
			return Result{PayloadText: NoDataMessage(tool)}
		}
		return Result{PayloadText: clip(text), HasData: true}
	}
}

// CSVLoader builds a Loader for a tool whose artifact is line-oriented
// text (e.g. a rendered CSV snapshot): lines are joined up to maxRows,
// with a truncation marker appended when rows are dropped, before the
// result is clipped to the character budget.
func CSVLoader(tool, relPath string, maxRows int) Loader {
	return func(reportDir string) Result {
		data, ok := readArtifact(reportDir, relPath)
		if !ok || len(data) == 0 {
			return Result{PayloadText: NoDataMessage(tool)}
		}

		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		truncatedRows := false
		if len(lines) > maxRows {
			lines = lines[:maxRows]
			truncatedRows = true
		}
		text := strings.Join(lines, "\n")
		if truncatedRows {
			text += truncationSuffix
		}
		return Result{PayloadText: clip(text), HasData: true}
	}
}

// readArtifact reads reportDir/<relPath>, where relPath already carries
// its tool subdirectory (e.g. "sysevents/summary.json") as extracted
// from the result archive (spec §4.5). ok is false when the file is
// missing or unreadable (spec §4.6: "fails gracefully when missing").
func readArtifact(reportDir, relPath string) ([]byte, bool) {
	path := filepath.Join(reportDir, relPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}
