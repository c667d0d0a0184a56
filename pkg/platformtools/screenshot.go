package platformtools

import "context"

// DisplayCapturer implements collector.ScreenshotCapturer by driving an
// OS-level screenshot utility that writes a PNG to the path it is given
// (spec §4.2 item 7).
type DisplayCapturer struct {
	*runner
}

// NewDisplayCapturer builds a DisplayCapturer backed by binaryPath.
func NewDisplayCapturer(binaryPath string) *DisplayCapturer {
	return &DisplayCapturer{runner: newRunner(binaryPath)}
}

// CapturePrimaryDisplay writes a screenshot of the primary display to
// destPath.
func (d *DisplayCapturer) CapturePrimaryDisplay(ctx context.Context, destPath string) error {
	_, err := d.run(ctx, "--primary", "--out", destPath)
	return err
}
