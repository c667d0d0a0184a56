package hostrun

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cloudlab/detonator/pkg/analyzer"
	"github.com/cloudlab/detonator/pkg/hypervisor"
	"github.com/cloudlab/detonator/pkg/sharedchannel"

	"github.com/google/uuid"
)

// Orchestrator drives the host-side detonation sequence (spec §4.4). A
// single in-memory map tracks every analysis ever submitted this run,
// guarded by mu; only one analysis may be StatusRunning at a time (spec
// §5 "at most one active analysis at a time").
type Orchestrator struct {
	hv      *hypervisor.CLI
	channel *sharedchannel.Channel
	agent   *AgentClient

	samplesDir  string
	reportsRoot string

	pollInterval    time.Duration
	pollGrace       time.Duration
	screenshotEvery time.Duration

	mu      sync.RWMutex
	results map[string]*AnalysisResult
	active  bool

	analyzer *analyzer.Analyzer
}

// Config bundles the Orchestrator's tunables (spec §4.4, §5).
type Config struct {
	SamplesDir      string
	ReportsRoot     string
	PollInterval    time.Duration
	PollGrace       time.Duration
	ScreenshotEvery time.Duration

	// Analyzer runs the multi-agent threat analysis pipeline (C7) against
	// the report directory once extraction finishes. Nil disables
	// analysis entirely, leaving the report directory populated by the
	// guest-produced artifacts only.
	Analyzer *analyzer.Analyzer
}

// New builds an Orchestrator wired to the hypervisor CLI, the shared
// channel, and the guest agent HTTP client.
func New(hv *hypervisor.CLI, channel *sharedchannel.Channel, agent *AgentClient, cfg Config) *Orchestrator {
	return &Orchestrator{
		hv:              hv,
		channel:         channel,
		agent:           agent,
		samplesDir:      cfg.SamplesDir,
		reportsRoot:     cfg.ReportsRoot,
		pollInterval:    cfg.PollInterval,
		pollGrace:       cfg.PollGrace,
		screenshotEvery: cfg.ScreenshotEvery,
		results:         make(map[string]*AnalysisResult),
		analyzer:        cfg.Analyzer,
	}
}

// Get returns a previously submitted analysis's current record.
func (o *Orchestrator) Get(id string) (*AnalysisResult, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	res, ok := o.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *res
	return &clone, nil
}

// Cleanup removes a completed analysis's report directory (spec §6.3
// "cleanup"). It refuses to remove a report directory that is still
// running.
func (o *Orchestrator) Cleanup(id string) error {
	o.mu.Lock()
	res, ok := o.results[id]
	if !ok {
		o.mu.Unlock()
		return ErrNotFound
	}
	if res.Status == StatusRunning || res.Status == StatusPending {
		o.mu.Unlock()
		return fmt.Errorf("analysis %s is still %s", id, res.Status)
	}
	reportDir := res.ReportDir
	delete(o.results, id)
	o.mu.Unlock()

	return os.RemoveAll(reportDir)
}

// CheckVM reports the guest's network-assigned IP address, used by the
// host-facing "check-vm" endpoint to confirm the VM is reachable (spec
// §6.3).
func (o *Orchestrator) CheckVM(ctx context.Context) (string, error) {
	return o.hv.GuestIP(ctx)
}

// newAnalysisID generates a sortable, unique analysis id (spec §8:
// "analysis_id values are strictly ordered by start time").
func newAnalysisID(now time.Time) string {
	return fmt.Sprintf("%s_%s", now.UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

// Submit runs the full host orchestrator sequence (spec §4.4). It
// returns immediately after step 1 records the pending result; the rest
// of the sequence runs on its own goroutine, mutating the same record
// under lock. Callers poll Get for progress.
func (o *Orchestrator) Submit(ctx context.Context, samplePath string, timeout time.Duration, screenshotInterval int) (*AnalysisResult, error) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		return nil, ErrAnalysisRunning
	}
	o.active = true

	now := time.Now()
	id := newAnalysisID(now)
	sampleName := filepath.Base(samplePath)
	reportDir := filepath.Join(o.reportsRoot, id)

	result := &AnalysisResult{
		AnalysisID: id,
		Sample:     sampleName,
		Status:     StatusPending,
		StartedAt:  now,
		Timeout:    int(timeout.Seconds()),
		ReportDir:  reportDir,
	}
	o.results[id] = result
	o.mu.Unlock()

	go o.run(context.Background(), result, samplePath, timeout, screenshotInterval)

	clone := *result
	return &clone, nil
}

func (o *Orchestrator) run(ctx context.Context, result *AnalysisResult, samplePath string, timeout time.Duration, screenshotInterval int) {
	logger := slog.With("analysis_id", result.AnalysisID, "sample", result.Sample)
	defer func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
	}()

	fail := func(stage string, err error) {
		logger.Error("host orchestrator step failed", "stage", stage, "error", err)
		o.mu.Lock()
		result.Status = StatusFailed
		result.Error = fmt.Sprintf("%s: %v", stage, err)
		result.CompletedAt = time.Now()
		o.mu.Unlock()
	}

	o.setStatus(result, StatusRunning)

	// Step 1: per-analysis report directory.
	if err := os.MkdirAll(result.ReportDir, 0o755); err != nil {
		fail("create_report_dir", err)
		return
	}

	// Step 2: archive sample locally under samples/<id>_<name>.
	localArchive := filepath.Join(o.samplesDir, result.AnalysisID+"_"+result.Sample)
	if err := copyFile(samplePath, localArchive); err != nil {
		fail("archive_sample_locally", err)
		return
	}

	// Step 3: copy sample to shared channel under <name>.
	if err := o.channel.PutFile(result.Sample, samplePath); err != nil {
		fail("copy_to_shared_channel", err)
		return
	}

	// Step 4: POST execute.
	if err := o.agent.Execute(ctx, result.Sample, timeout, screenshotInterval); err != nil {
		fail("execute_request", err)
		return
	}

	// Step 5: concurrent VM screenshot task.
	screenshotsDir := filepath.Join(result.ReportDir, "screenshots")
	_ = os.MkdirAll(screenshotsDir, 0o755)
	stopScreenshots := make(chan struct{})
	screenshotsDone := make(chan []string, 1)
	go o.captureScreenshots(ctx, screenshotsDir, stopScreenshots, screenshotsDone)

	// Step 6: poll agent status until idle/error, or timeout.
	pollErr := o.pollUntilDone(ctx, timeout)

	// Step 7: stop screenshot task, join with timeout.
	close(stopScreenshots)
	var screenshotPaths []string
	select {
	case screenshotPaths = <-screenshotsDone:
	case <-time.After(10 * time.Second):
		logger.Warn("screenshot task did not stop within timeout")
	}

	if pollErr != nil {
		fail("poll_agent_status", pollErr)
		return
	}

	// Step 8: retrieve newest result archive, extract it.
	sampleBaseNoExt := strings.TrimSuffix(result.Sample, filepath.Ext(result.Sample))
	archivePath, err := sharedchannel.NewestResultArchive(o.channel.Dir(), sampleBaseNoExt)
	if err != nil {
		fail("locate_result_archive", err)
		return
	}
	var extractedFiles []string
	if archivePath != "" {
		extractedFiles, err = extractArchive(archivePath, result.ReportDir)
		if err != nil {
			fail("extract_result_archive", err)
			return
		}
		result.ResultPackage = filepath.Base(archivePath)
	} else {
		logger.Warn("no result archive found on shared channel")
	}

	// Step 9: best-effort event count (not persisted as a field in this
	// core; surfaced only via logging, since spec §3's manifest shape
	// carries files[] and not a raw count).
	logger.Info("recovered result archive", "event_count", countEventLines(result.ReportDir, extractedFiles))

	// Step 10: merge screenshot paths into the file list.
	files := append(extractedFiles, screenshotPaths...)

	// Step 10b: run the multi-agent threat analyzer over the extracted
	// artifacts, best-effort (a missing or failing LLM sidecar must not
	// fail an otherwise-complete analysis).
	if o.analyzer != nil && archivePath != "" {
		toolResults, report, rawSummary := o.analyzer.Run(ctx, sampleBaseNoExt, result.ReportDir)
		if err := analyzer.Persist(result.ReportDir, toolResults, report, rawSummary); err != nil {
			logger.Warn("failed to persist threat analysis", "error", err)
		} else {
			files = append(files, aiAnalysisFiles(toolResults)...)
		}
	}

	o.mu.Lock()
	result.Files = files
	result.Status = StatusComplete
	result.CompletedAt = time.Now()
	o.mu.Unlock()

	// Step 11: write analysis_manifest.json.
	if err := writeManifest(result); err != nil {
		logger.Warn("failed to write analysis manifest", "error", err)
	}
}

func (o *Orchestrator) setStatus(result *AnalysisResult, status Status) {
	o.mu.Lock()
	result.Status = status
	o.mu.Unlock()
}

// pollUntilDone polls the guest agent's status every o.pollInterval until
// it reports idle or error, or the budget timeout+pollGrace elapses
// (spec §4.4 step 6, §5 Timeouts).
func (o *Orchestrator) pollUntilDone(ctx context.Context, timeout time.Duration) error {
	budget := timeout + o.pollGrace
	deadline := time.Now().Add(budget)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		status, err := o.agent.Status(ctx)
		if err == nil && (status.Status == "idle" || status.Status == "error") {
			if status.Status == "error" {
				return fmt.Errorf("guest agent reported error: %s", status.LastError)
			}
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("agent did not reach idle/error within %s", budget)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// captureScreenshots snapshots the VM display at screenshotEvery via the
// hypervisor CLI until stop is closed (spec §4.4 step 5, §5 zone 3).
func (o *Orchestrator) captureScreenshots(ctx context.Context, dir string, stop <-chan struct{}, done chan<- []string) {
	var paths []string
	idx := 0
	ticker := time.NewTicker(o.screenshotEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			done <- paths
			return
		case <-ticker.C:
			idx++
			dest := filepath.Join(dir, fmt.Sprintf("host_screenshot_%03d.png", idx))
			if err := o.hv.CaptureDisplay(ctx, dest, 10*time.Second); err != nil {
				slog.Warn("host screenshot capture failed", "error", err)
				continue
			}
			rel, relErr := filepath.Rel(filepath.Dir(dir), dest)
			if relErr == nil {
				paths = append(paths, rel)
			}
		}
	}
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

// extractArchive unpacks a zip archive into destDir and returns the
// relative paths of every extracted file (spec §4.4 step 8, §8
// round-trip property).
func extractArchive(archivePath, destDir string) ([]string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer r.Close()

	var extracted []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, f.Name)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", destPath, err)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening archived entry %s: %w", f.Name, err)
		}
		out, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("creating %s: %w", destPath, err)
		}
		_, copyErr := io.Copy(out, rc)
		rc.Close()
		out.Close()
		if copyErr != nil {
			return nil, fmt.Errorf("extracting %s: %w", f.Name, copyErr)
		}
		extracted = append(extracted, f.Name)
	}
	return extracted, nil
}

// aiAnalysisFiles lists the relative paths the analyzer persists under
// ai_analysis/, for inclusion in the analysis manifest's file list.
func aiAnalysisFiles(results []analyzer.ToolResult) []string {
	files := []string{
		filepath.Join("ai_analysis", "ai_report.json"),
		filepath.Join("ai_analysis", "threat_report.json"),
	}
	for _, r := range results {
		files = append(files, filepath.Join("ai_analysis", r.Tool+"_analysis.json"))
	}
	return files
}

// countEventLines counts lines containing "Event ID:" across the
// extracted artifacts, best-effort (spec §4.4 step 9).
func countEventLines(reportDir string, relPaths []string) int {
	count := 0
	for _, rel := range relPaths {
		data, err := os.ReadFile(filepath.Join(reportDir, rel))
		if err != nil {
			continue
		}
		count += strings.Count(string(data), "Event ID:")
	}
	return count
}

// writeManifest persists analysis_manifest.json (spec §4.4 step 11, §6.5).
func writeManifest(result *AnalysisResult) error {
	path := filepath.Join(result.ReportDir, "analysis_manifest.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling analysis manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
