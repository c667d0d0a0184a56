// Package hostrun implements the host orchestrator (C4, spec §4.4): the
// sequence that submits a sample to the guest agent, captures VM
// screenshots concurrently, polls for completion, and retrieves the
// result package.
package hostrun

import (
	"errors"
	"time"
)

// Status is the lifecycle of one analysis as tracked by the host (spec §3
// "Analysis result (host side)").
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// ErrAgentBusy is returned when the guest agent rejects /api/execute with
// a conflict (spec §7 taxonomy (b)).
var ErrAgentBusy = errors.New("guest agent is already executing")

// ErrAnalysisRunning is returned by Submit when another analysis is
// already in flight (spec §5: "There is at most one active analysis at a
// time; submission while running fails conflict").
var ErrAnalysisRunning = errors.New("an analysis is already running")

// ErrNotFound is returned by Get when the analysis id is unknown.
var ErrNotFound = errors.New("analysis not found")

// AnalysisResult is the host-side record of one analysis (spec §3).
type AnalysisResult struct {
	AnalysisID       string    `json:"analysis_id"`
	Sample           string    `json:"sample"`
	Status           Status    `json:"status"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at,omitempty"`
	Timeout          int       `json:"timeout"`
	Error            string    `json:"error,omitempty"`
	ReportDir        string    `json:"report_dir"`
	Files            []string  `json:"files"`
	ResultPackage    string    `json:"result_package,omitempty"`
}

// timestampFormat renders UTC ISO-8601 with a literal Z suffix (spec §3).
const timestampFormat = "2006-01-02T15:04:05Z"

// FormatTimestamp renders t per spec §3's ISO-8601 "Z" convention.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}
