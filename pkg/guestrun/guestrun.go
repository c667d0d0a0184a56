// Package guestrun implements the guest agent orchestrator: the
// detonation sequence that runs inside the analysis VM, from accepting
// a sample through packaging its collected artifacts back onto the
// shared channel.
package guestrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cloudlab/detonator/pkg/agentstate"
	"github.com/cloudlab/detonator/pkg/collector"
	"github.com/cloudlab/detonator/pkg/sharedchannel"
)

// ErrSampleNotFound is returned when the requested filename is absent
// from the shared channel.
var ErrSampleNotFound = errors.New("sample not found in shared channel")

// ProcMonWarmup is the pause observed after starting a fresh
// process-activity tool instance, before the sample is launched (spec
// §4.3 step 6).
const ProcMonWarmup = 2 * time.Second

// ProcessTerminator kills any leftover process matching a basename.
// Failures are always best-effort (spec §4.3 step 3).
type ProcessTerminator interface {
	TerminateByName(ctx context.Context, basename string) error
}

// SampleLauncher launches the sample through the first mechanism that
// succeeds, in the order spec §4.3 step 8 lists them.
type SampleLauncher interface {
	LaunchInteractive(ctx context.Context, samplePath string) error
	LaunchDetached(ctx context.Context, samplePath string) error
	LaunchViaOpen(ctx context.Context, samplePath string) error
}

// ResultPackager builds the deterministic result archive (spec §4.5)
// from whatever collectors left in workDir. It returns the archive's
// absolute path.
type ResultPackager interface {
	Package(ctx context.Context, workDir, sampleBasename string, statuses map[string]collector.Result) (string, error)
}

// ProcMonPreparer is implemented by the process-activity collector; it
// is invoked before detonation to terminate any leftover instance and
// start a fresh one (spec §4.3 step 6).
type ProcMonPreparer interface {
	Prepare(ctx context.Context) error
}

// LogClearer is implemented by the system-events collector; it clears
// the backing event log channel before detonation (spec §4.3 step 5).
type LogClearer interface {
	ClearLog(ctx context.Context) error
}

// Deps bundles the collaborators a Run needs. Registry, State and
// Channel are required; everything else is best-effort and may be nil.
type Deps struct {
	Channel    *sharedchannel.Channel
	State      *agentstate.State
	Registry   *collector.Registry
	WorkDir    string
	SamplesDir string

	ProcessTerminator ProcessTerminator
	Launcher          SampleLauncher
	Packager          ResultPackager
}

// Request is the detonation request accepted by Run (spec §4.3).
type Request struct {
	Filename                  string
	Timeout                   time.Duration
	ScreenshotIntervalSeconds int
}

// Completion is the outcome returned once the sequence finishes,
// whatever its terminal status (spec §4.3 step 13, §7).
type Completion struct {
	Status            string // "completed" or "error"
	Sample            string
	Error             string
	ResultArchive     string
	CollectorStatuses map[string]collector.Result
}

// Run executes the full detonation sequence described by spec §4.3.
// It is meant to be launched on its own goroutine by the guest transport
// server after the caller has already observed the executing transition
// synchronously via Deps.State.BeginExecution.
func Run(ctx context.Context, deps *Deps, req Request) Completion {
	logger := slog.With("sample", req.Filename)
	sampleBasename := filepath.Base(req.Filename)

	fail := func(stage string, err error) Completion {
		msg := fmt.Sprintf("%s: %v", stage, err)
		logger.Error("detonation failed", "stage", stage, "error", err)
		deps.State.FinishError(msg)
		return Completion{Status: "error", Sample: sampleBasename, Error: msg}
	}

	// Step 2: resolve sample in shared channel.
	if deps.Channel == nil || !deps.Channel.HasSample(req.Filename) {
		return fail("resolve_sample", ErrSampleNotFound)
	}

	// Step 3: best-effort termination of any leftover process.
	if deps.ProcessTerminator != nil {
		if err := deps.ProcessTerminator.TerminateByName(ctx, sampleBasename); err != nil {
			logger.Warn("leftover process termination failed", "error", err)
		}
	}

	// Step 4: copy sample from shared channel into the local samples dir.
	localPath, err := copySampleLocal(deps.Channel.Path(req.Filename), deps.SamplesDir, sampleBasename)
	if err != nil {
		return fail("copy_sample", err)
	}

	deps.Registry.SetSample(sampleBasename)

	// Step 5: best-effort event log clear.
	for _, c := range deps.Registry.All() {
		if clearer, ok := c.(LogClearer); ok {
			if err := clearer.ClearLog(ctx); err != nil {
				logger.Warn("event log clear failed", "collector", c.Name(), "error", err)
			}
		}
	}

	// Step 6: terminate leftover process-activity instance, start fresh,
	// warm up.
	for _, c := range deps.Registry.All() {
		if preparer, ok := c.(ProcMonPreparer); ok {
			if err := preparer.Prepare(ctx); err != nil {
				logger.Warn("process-activity tool prepare failed", "collector", c.Name(), "error", err)
			} else {
				time.Sleep(ProcMonWarmup)
			}
		}
	}

	// Step 7: start capture collectors (network, screenshots).
	startErrs := deps.Registry.StartAll(ctx, collector.StartConfig{ScreenshotIntervalSeconds: req.ScreenshotIntervalSeconds})
	for _, err := range startErrs {
		logger.Warn("collector start failed", "error", err)
	}

	// Step 8: launch the sample via the first mechanism available.
	if deps.Launcher != nil {
		if err := launchSample(ctx, deps.Launcher, localPath); err != nil {
			logger.Warn("sample launch fell through every mechanism", "error", err)
		}
	}

	// Step 9: sleep for the detonation timeout, honoring cancellation.
	select {
	case <-time.After(req.Timeout):
	case <-ctx.Done():
	}

	// Step 10: stop capture collectors.
	for _, err := range deps.Registry.StopAll(ctx) {
		logger.Warn("collector stop failed", "error", err)
	}

	// Step 11: collect.
	if err := deps.State.BeginCollecting(); err != nil {
		return fail("begin_collecting", err)
	}
	statuses := deps.Registry.CollectAll(ctx)

	// Step 12: package results and copy to the shared channel.
	var archivePath string
	if deps.Packager != nil {
		archivePath, err = deps.Packager.Package(ctx, deps.WorkDir, sampleBasename, statuses)
		if err != nil {
			return fail("package_results", err)
		}
		if err := deps.Channel.PutFile(filepath.Base(archivePath), archivePath); err != nil {
			logger.Warn("failed to copy result package to shared channel", "error", err)
		}
	}

	// Step 13: idle.
	deps.State.FinishIdle()
	return Completion{
		Status:            "completed",
		Sample:            sampleBasename,
		ResultArchive:     archivePath,
		CollectorStatuses: statuses,
	}
}

// launchSample tries each launch mechanism in the order spec §4.3 step 8
// lists them, returning nil on the first success.
func launchSample(ctx context.Context, l SampleLauncher, samplePath string) error {
	if err := l.LaunchInteractive(ctx, samplePath); err == nil {
		return nil
	}
	if err := l.LaunchDetached(ctx, samplePath); err == nil {
		return nil
	}
	return l.LaunchViaOpen(ctx, samplePath)
}

func copySampleLocal(srcPath, samplesDir, basename string) (string, error) {
	if err := os.MkdirAll(samplesDir, 0o755); err != nil {
		return "", fmt.Errorf("creating samples directory: %w", err)
	}
	dstPath := filepath.Join(samplesDir, basename)

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("opening shared sample: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("creating local sample: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("copying sample: %w", err)
	}
	return dstPath, nil
}
