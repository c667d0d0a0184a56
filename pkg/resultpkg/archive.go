package resultpkg

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloudlab/detonator/pkg/collector"
	"github.com/cloudlab/detonator/pkg/sharedchannel"
)

// excludedExtensions are raw file types never shipped in the result
// archive — only their summaries travel (spec §4.5 size policy).
var excludedExtensions = map[string]bool{
	".pml":  true,
	".csv":  true,
	".pcap": true,
}

// zipEntryTime is stamped on every archive entry so two packagings of
// identical content produce byte-identical archives (spec §4.5:
// "deterministic ZIP archive").
var zipEntryTime = time.Unix(0, 0).UTC()

// Packager builds the result archive described by spec §4.5 and §3.
type Packager struct {
	AgentVersion string
}

// NewPackager creates a Packager stamping every archive with the given
// agent version string (reported in metadata.json).
func NewPackager(agentVersion string) *Packager {
	return &Packager{AgentVersion: agentVersion}
}

// Package writes metadata.json and analysis_summary.json into workDir,
// then builds the deterministic ZIP archive named
// results_<sampleBaseNoExt>_<ts>.zip rooted at workDir (spec §4.5). It
// implements guestrun.ResultPackager.
func (p *Packager) Package(ctx context.Context, workDir, sampleBasename string, statuses map[string]collector.Result) (string, error) {
	now := time.Now().UTC()

	meta := BuildMetadata(sampleBasename, p.AgentVersion, now, statuses)
	if err := writeJSON(filepath.Join(workDir, "metadata.json"), meta); err != nil {
		return "", fmt.Errorf("writing metadata.json: %w", err)
	}

	summary := BuildAnalysisSummary(workDir, statuses)
	if err := writeJSON(filepath.Join(workDir, "analysis_summary.json"), summary); err != nil {
		return "", fmt.Errorf("writing analysis_summary.json: %w", err)
	}

	baseNoExt := strings.TrimSuffix(sampleBasename, filepath.Ext(sampleBasename))
	archiveName := sharedchannel.ResultArchiveName(baseNoExt, now)
	archivePath := filepath.Join(workDir, archiveName)

	paths := collectArchivePaths(statuses)
	if err := writeArchive(archivePath, workDir, paths); err != nil {
		return "", fmt.Errorf("writing result archive: %w", err)
	}
	return archivePath, nil
}

// collectArchivePaths gathers every path the inclusion policy admits:
// every file any collector reported, plus metadata.json and
// analysis_summary.json, minus the excluded extensions — sorted for a
// deterministic entry order.
func collectArchivePaths(statuses map[string]collector.Result) []string {
	seen := make(map[string]bool)
	var paths []string

	add := func(p string) {
		if p == "" || seen[p] || excludedExtensions[strings.ToLower(filepath.Ext(p))] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, name := range sortedNames(statuses) {
		for _, f := range statuses[name].Files {
			add(f)
		}
	}
	add("metadata.json")
	add("analysis_summary.json")

	sort.Strings(paths)
	return paths
}

func writeArchive(archivePath, workDir string, relPaths []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, rel := range relPaths {
		if err := addFileToArchive(zw, workDir, rel); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

func addFileToArchive(zw *zip.Writer, workDir, rel string) error {
	src, err := os.Open(filepath.Join(workDir, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil // best-effort: a collector may have reported a file that vanished
		}
		return err
	}
	defer src.Close()

	header := &zip.FileHeader{
		Name:     filepath.ToSlash(rel),
		Method:   zip.Deflate,
		Modified: zipEntryTime,
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
