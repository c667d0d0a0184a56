// Package sharedchannel models the filesystem directory visible to both
// host and guest (spec §6.1, §9 "Shared channel contract"). It is
// deliberately thin: the only invariants are the exact host→guest input
// filename and the `results_<base>_*.zip` guest→host output pattern,
// selected by newest modification time when more than one archive matches.
package sharedchannel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Channel wraps a directory path shared between host and guest.
type Channel struct {
	dir string
}

// New returns a Channel rooted at dir. It does not verify dir exists;
// callers that require it to exist (guest agent startup, spec §6.6 exit
// code 1) should call Exists first.
func New(dir string) *Channel {
	return &Channel{dir: dir}
}

// Dir returns the root directory.
func (c *Channel) Dir() string {
	return c.dir
}

// Exists reports whether the shared directory is present and is a directory.
func (c *Channel) Exists() bool {
	info, err := os.Stat(c.dir)
	return err == nil && info.IsDir()
}

// Path joins name onto the channel directory.
func (c *Channel) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// PutFile copies src into the channel under the given name (host→guest
// input, or guest→host result archive).
func (c *Channel) PutFile(name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	dst := c.Path(name)
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return nil
}

// PutBytes writes data into the channel under the given name.
func (c *Channel) PutBytes(name string, data []byte) error {
	return os.WriteFile(c.Path(name), data, 0o644)
}

// HasSample reports whether the exact host→guest filename is present.
func (c *Channel) HasSample(filename string) bool {
	_, err := os.Stat(c.Path(filename))
	return err == nil
}

// NewestResultArchive finds the newest file matching
// `results_<sampleBaseNoExt>_*.zip` in the channel directory (spec §6.1,
// §4.4 step 8). Returns "" if none match.
func NewestResultArchive(dir, sampleBaseNoExt string) (string, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("results_%s_*.zip", sampleBaseNoExt))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", nil
	}

	type stamped struct {
		path string
		mod  time.Time
	}
	stampedMatches := make([]stamped, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		stampedMatches = append(stampedMatches, stamped{path: m, mod: info.ModTime()})
	}
	if len(stampedMatches) == 0 {
		return "", nil
	}
	sort.Slice(stampedMatches, func(i, j int) bool {
		return stampedMatches[i].mod.After(stampedMatches[j].mod)
	})
	return stampedMatches[0].path, nil
}

// ResultArchiveName builds the deterministic guest→host archive name
// (spec §4.5): results_<sampleBaseNoExt>_<ts>.zip, ts = UTC YYYYMMDD_HHMMSS.
func ResultArchiveName(sampleBaseNoExt string, ts time.Time) string {
	return fmt.Sprintf("results_%s_%s.zip", sampleBaseNoExt, ts.UTC().Format("20060102_150405"))
}
