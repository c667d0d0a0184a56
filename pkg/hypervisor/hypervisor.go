// Package hypervisor wraps the small set of hypervisor CLI commands the
// host orchestrator needs (spec §6.4): start, stop/poweroff, save/restore
// state, take/restore snapshot, enumerate guest network properties, and
// capture the display to a PNG file. All other CLI wrapping is out of
// scope (spec §1).
package hypervisor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CLI runs hypervisor commands against a named VM via an external binary
// (e.g. VBoxManage, virsh). It is a thin command abstraction — it never
// parses tool-specific output beyond what each method's signature promises.
type CLI struct {
	binaryPath string
	vmName     string

	// run is overridable in tests to avoid invoking a real hypervisor binary.
	run func(ctx context.Context, args ...string) ([]byte, error)
}

// New creates a CLI wrapper for the named VM.
func New(binaryPath, vmName string) *CLI {
	c := &CLI{binaryPath: binaryPath, vmName: vmName}
	c.run = c.exec
	return c
}

func (c *CLI) exec(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %v: %w", c.binaryPath, args, err)
	}
	return out, nil
}

// Start powers on the VM.
func (c *CLI) Start(ctx context.Context) error {
	_, err := c.run(ctx, "startvm", c.vmName)
	return err
}

// Stop powers off the VM (spec §6.4 "stop/poweroff").
func (c *CLI) Stop(ctx context.Context) error {
	_, err := c.run(ctx, "controlvm", c.vmName, "poweroff")
	return err
}

// SaveState suspends the VM, preserving memory to disk.
func (c *CLI) SaveState(ctx context.Context) error {
	_, err := c.run(ctx, "controlvm", c.vmName, "savestate")
	return err
}

// RestoreState resumes a previously saved VM.
func (c *CLI) RestoreState(ctx context.Context) error {
	_, err := c.run(ctx, "startvm", c.vmName, "--type", "headless")
	return err
}

// TakeSnapshot captures a named point-in-time snapshot.
func (c *CLI) TakeSnapshot(ctx context.Context, name string) error {
	_, err := c.run(ctx, "snapshot", c.vmName, "take", name)
	return err
}

// RestoreSnapshot rolls the VM back to a named snapshot.
func (c *CLI) RestoreSnapshot(ctx context.Context, name string) error {
	_, err := c.run(ctx, "snapshot", c.vmName, "restore", name)
	return err
}

// GuestIP enumerates the guest's network properties and returns its
// reported IPv4 address.
func (c *CLI) GuestIP(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "guestproperty", "get", c.vmName, "/VirtualBox/GuestInfo/Net/0/V4/IP")
	if err != nil {
		return "", err
	}
	return parseGuestPropertyValue(out), nil
}

// CaptureDisplay takes a screenshot of the VM's primary display and writes
// it to destPath as a PNG (spec §4.4 step 5, §6.4). timeout bounds the
// underlying process; on overrun the process is killed (spec §5 Timeouts).
func (c *CLI) CaptureDisplay(ctx context.Context, destPath string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := c.run(ctx, "controlvm", c.vmName, "screenshotpng", destPath)
	return err
}

func parseGuestPropertyValue(out []byte) string {
	const prefix = "Value: "
	s := string(out)
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return ""
	}
	rest := s[idx+len(prefix):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(rest)
}
