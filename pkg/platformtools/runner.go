// Package platformtools implements subprocess-backed adapters for the
// guest collectors' tool interfaces (pkg/collector): each wraps a
// configurable external binary via exec.CommandContext, following
// hypervisor.CLI's thin-wrapper-with-overridable-run pattern so tests can
// substitute canned output without invoking a real tool.
package platformtools

import (
	"context"
	"fmt"
	"os/exec"
)

// runner executes an external binary and is overridable in tests.
type runner struct {
	binaryPath string
	run        func(ctx context.Context, args ...string) ([]byte, error)
}

func newRunner(binaryPath string) *runner {
	r := &runner{binaryPath: binaryPath}
	r.run = r.exec
	return r
}

func (r *runner) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binaryPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %v: %w", r.binaryPath, args, err)
	}
	return out, nil
}
