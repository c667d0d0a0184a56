package resultpkg

import (
	"sort"
	"time"

	"github.com/cloudlab/detonator/pkg/collector"
)

// CollectorMeta is one collector's entry in metadata.json (spec §6.5:
// "{sample, timestamp, agent version, per-collector status}").
type CollectorMeta struct {
	Name   string   `json:"name"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Metadata is the workDir/metadata.json artifact (spec §3, §6.5).
type Metadata struct {
	Sample       string          `json:"sample"`
	Timestamp    string          `json:"timestamp"`
	AgentVersion string          `json:"agent_version"`
	Collectors   []CollectorMeta `json:"collectors"`
}

// BuildMetadata assembles the metadata record. Collectors are listed in
// sorted-name order so the archive's metadata is reproducible regardless
// of map iteration order.
func BuildMetadata(sample, agentVersion string, now time.Time, statuses map[string]collector.Result) Metadata {
	names := sortedNames(statuses)
	collectors := make([]CollectorMeta, 0, len(names))
	for _, name := range names {
		result := statuses[name]
		collectors = append(collectors, CollectorMeta{
			Name:   name,
			Status: string(result.Status),
			Files:  result.Files,
			Error:  result.Error,
		})
	}
	return Metadata{
		Sample:       sample,
		Timestamp:    now.UTC().Format(time.RFC3339),
		AgentVersion: agentVersion,
		Collectors:   collectors,
	}
}

func sortedNames(statuses map[string]collector.Result) []string {
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
