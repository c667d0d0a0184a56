package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ScreenshotCapturer abstracts the OS-level screenshot capability used to
// snapshot the primary display (spec §4.2 item 4).
type ScreenshotCapturer interface {
	CapturePrimaryDisplay(ctx context.Context, destPath string) error
}

// ScreenshotStopTimeout bounds how long Stop waits for the capture loop
// to observe the stop signal and exit (spec §5 zone 3).
const ScreenshotStopTimeout = 5 * time.Second

// ScreenshotCollector runs a background timer loop that captures the
// primary display at a configurable interval (spec §4.2 item 4).
type ScreenshotCollector struct {
	capturer ScreenshotCapturer
	workDir  string
	sample   string

	mu       sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
	running  bool
	index    int
	captured []string // relative paths, in capture order
}

// NewScreenshotCollector creates the collector, writing images under
// workDir/screenshots/.
func NewScreenshotCollector(capturer ScreenshotCapturer, workDir string) *ScreenshotCollector {
	return &ScreenshotCollector{capturer: capturer, workDir: workDir}
}

func (c *ScreenshotCollector) Name() string       { return "screenshot" }
func (c *ScreenshotCollector) Available() bool    { return c.capturer != nil }
func (c *ScreenshotCollector) SetSample(s string) { c.sample = s }

func (c *ScreenshotCollector) dir() string {
	return filepath.Join(c.workDir, "screenshots")
}

// Start begins the capture loop at the given interval (clamped to the §8
// floor of 2 seconds by config.ClampScreenshotInterval before reaching
// here; this method defends against a raw, unclamped caller too).
func (c *ScreenshotCollector) Start(ctx context.Context, cfg StartConfig) error {
	if c.capturer == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir(), 0o755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}

	interval := cfg.ScreenshotIntervalSeconds
	if interval < 2 {
		interval = 2
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.stopOnce = sync.Once{}
	c.running = true
	c.mu.Unlock()

	go c.loop(ctx, time.Duration(interval)*time.Second)
	return nil
}

func (c *ScreenshotCollector) loop(ctx context.Context, interval time.Duration) {
	defer close(c.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.captureOne(ctx)
		}
	}
}

func (c *ScreenshotCollector) captureOne(ctx context.Context) {
	c.mu.Lock()
	c.index++
	idx := c.index
	c.mu.Unlock()

	name := fmt.Sprintf("screenshot_%03d_%s.png", idx, time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(c.dir(), name)

	if err := c.capturer.CapturePrimaryDisplay(ctx, path); err != nil {
		return
	}

	rel, _ := filepath.Rel(c.workDir, path)
	c.mu.Lock()
	c.captured = append(c.captured, rel)
	c.mu.Unlock()
}

// Stop signals the capture loop to stop and waits up to
// ScreenshotStopTimeout for it to exit (spec §5 zone 3: "cancellation is
// cooperative via a shared signal with timeout on join").
func (c *ScreenshotCollector) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	done := c.doneCh
	c.mu.Unlock()

	c.stopOnce.Do(func() { close(c.stopCh) })

	select {
	case <-done:
		return nil
	case <-time.After(ScreenshotStopTimeout):
		return fmt.Errorf("screenshot capture loop did not stop within %s", ScreenshotStopTimeout)
	}
}

// Collect enumerates every image file under the screenshot directory and
// deduplicates it against the set captured during the run (spec §4.2
// item 4: "collect enumerates all image files in the output directory
// and deduplicates against the captured list").
func (c *ScreenshotCollector) Collect(ctx context.Context) Result {
	if c.capturer == nil {
		return Result{Status: StatusUnavailable, Error: "screenshot capturer not configured"}
	}

	entries, err := os.ReadDir(c.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Status: StatusNoData}
		}
		return Result{Status: StatusError, Error: err.Error()}
	}

	c.mu.Lock()
	seen := make(map[string]bool, len(c.captured))
	files := append([]string(nil), c.captured...)
	for _, f := range files {
		seen[f] = true
	}
	c.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		rel, _ := filepath.Rel(c.workDir, filepath.Join(c.dir(), entry.Name()))
		if !seen[rel] {
			seen[rel] = true
			files = append(files, rel)
		}
	}

	if len(files) == 0 {
		return Result{Status: StatusNoData}
	}
	sort.Strings(files)
	return Result{Status: StatusOK, Files: files}
}
