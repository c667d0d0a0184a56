package platformtools

import "context"

// ProcessKiller implements guestrun.ProcessTerminator by driving a
// taskkill-style CLI, matching processes by image basename (spec §4.3
// step 3, best-effort).
type ProcessKiller struct {
	*runner
}

// NewProcessKiller builds a ProcessKiller backed by binaryPath.
func NewProcessKiller(binaryPath string) *ProcessKiller {
	return &ProcessKiller{runner: newRunner(binaryPath)}
}

// TerminateByName kills every running process whose image matches basename.
func (p *ProcessKiller) TerminateByName(ctx context.Context, basename string) error {
	_, err := p.run(ctx, "/F", "/IM", basename)
	return err
}

// SampleRunner implements guestrun.SampleLauncher by trying, in order, an
// interactive shell-execute launch, a detached process launch, and a
// launch through the desktop shell's "open" verb (spec §4.3 step 8).
type SampleRunner struct {
	*runner
}

// NewSampleRunner builds a SampleRunner backed by binaryPath, a small
// launcher shim that understands the three launch modes as subcommands.
func NewSampleRunner(binaryPath string) *SampleRunner {
	return &SampleRunner{runner: newRunner(binaryPath)}
}

// LaunchInteractive starts samplePath attached to the active console session.
func (s *SampleRunner) LaunchInteractive(ctx context.Context, samplePath string) error {
	_, err := s.run(ctx, "launch-interactive", samplePath)
	return err
}

// LaunchDetached starts samplePath as a background process with no window.
func (s *SampleRunner) LaunchDetached(ctx context.Context, samplePath string) error {
	_, err := s.run(ctx, "launch-detached", samplePath)
	return err
}

// LaunchViaOpen starts samplePath through the shell's default "open" verb.
func (s *SampleRunner) LaunchViaOpen(ctx context.Context, samplePath string) error {
	_, err := s.run(ctx, "launch-open", samplePath)
	return err
}
