package collector

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RawEvent is one parsed system-event-log record (spec §4.2 item 1).
// Category is one of the buckets the summarizer groups by; Fields holds
// whatever category-specific attributes the record carries (e.g.
// "dest_ip", "query_name", "target_filename", "loaded_image").
type RawEvent struct {
	EventID         int               `json:"event_id"`
	Category        string            `json:"category"`
	ProcessID       string            `json:"process_id"`
	ParentProcessID string            `json:"parent_process_id"`
	Image           string            `json:"image"`
	Fields          map[string]string `json:"fields,omitempty"`
}

// Event categories recognized by the summarizer.
const (
	CategoryProcessCreate       = "process_create"
	CategoryNetworkConnect      = "network_connect"
	CategoryDNSQuery            = "dns_query"
	CategoryFileCreate          = "file_create"
	CategoryRegistrySetValue    = "registry_set_value"
	CategoryRegistryDeleteValue = "registry_delete_value"
	CategoryRegistryRenameValue = "registry_rename_value"
	CategoryImageLoad           = "image_load"
)

// EventLogReader abstracts the platform event log query tool. The real
// implementation shells out to the event-log query binary configured for
// this collector; tests substitute a canned reader.
type EventLogReader interface {
	Query(ctx context.Context) ([]RawEvent, error)
	Clear(ctx context.Context) error
}

// SysEventsSummary is the categorized artifact written by the system
// events summarizer (spec §4.2 item 1, §6.5).
type SysEventsSummary struct {
	ProcessesCreated   []ProcessCreateEntry `json:"processes_created"`
	NetworkConnections []NetworkEntry       `json:"network_connections"`
	DNSQueries         []DNSEntry           `json:"dns_queries"`
	FilesCreated       []string             `json:"files_created"`
	RegistryWrites     []string             `json:"registry_writes"`
	RegistryDeletes    []string             `json:"registry_deletes"`
	RegistryRenames    []string             `json:"registry_renames"`
	LoadedLibraries    []string             `json:"loaded_libraries"`
}

// ProcessCreateEntry is one process-creation event retained in the summary.
type ProcessCreateEntry struct {
	ProcessID       string `json:"process_id"`
	ParentProcessID string `json:"parent_process_id"`
	Image           string `json:"image"`
}

// NetworkEntry is one retained network connection event.
type NetworkEntry struct {
	ProcessID string `json:"process_id"`
	DestIP    string `json:"dest_ip"`
	DestPort  string `json:"dest_port"`
}

// DNSEntry is one retained DNS query event.
type DNSEntry struct {
	ProcessID string `json:"process_id"`
	QueryName string `json:"query_name"`
}

const maxLoadedLibraries = 50

// SysEventsCollector implements the system-events summarizer (spec §4.2
// item 1). It builds the sample-process set by fixed-point iteration over
// parent/child edges (spec §9), then filters every event down to members
// of that set or events whose fields otherwise reference the sample.
type SysEventsCollector struct {
	reader  EventLogReader
	workDir string
	sample  string
}

// NewSysEventsCollector creates the collector, writing its artifact under
// workDir/sysevents/summary.json.
func NewSysEventsCollector(reader EventLogReader, workDir string) *SysEventsCollector {
	return &SysEventsCollector{reader: reader, workDir: workDir}
}

func (c *SysEventsCollector) Name() string { return "sysevents" }

func (c *SysEventsCollector) Available() bool { return c.reader != nil }

func (c *SysEventsCollector) SetSample(basename string) { c.sample = basename }

// ClearLog clears the backing event-log channel (spec §4.3 step 5,
// best-effort — failures are logged by the caller, not surfaced here).
func (c *SysEventsCollector) ClearLog(ctx context.Context) error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Clear(ctx)
}

func (c *SysEventsCollector) Collect(ctx context.Context) Result {
	if c.reader == nil {
		return Result{Status: StatusUnavailable, Error: "event log reader not configured"}
	}

	events, err := c.reader.Query(ctx)
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if len(events) == 0 {
		return Result{Status: StatusNoData}
	}

	set := BuildSampleProcessSet(events, c.sample)
	filtered := FilterEventsToSampleSet(events, set, c.sample)
	summary := summarizeEvents(filtered)

	dir := filepath.Join(c.workDir, "sysevents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	out := filepath.Join(dir, "summary.json")
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return Result{Status: StatusError, Error: err.Error()}
	}

	rel, _ := filepath.Rel(c.workDir, out)
	return Result{Status: StatusOK, Files: []string{rel}}
}

// BuildSampleProcessSet computes the transitive closure over parent→child
// process-creation edges, seeded by every process whose image path
// contains sampleBasename (case-insensitive). It is a pure function so it
// can be exercised directly by tests (spec §8 scenario 4).
func BuildSampleProcessSet(events []RawEvent, sampleBasename string) map[string]bool {
	set := make(map[string]bool)
	needle := strings.ToLower(sampleBasename)

	children := make(map[string][]string)
	for _, e := range events {
		if e.Category != CategoryProcessCreate {
			continue
		}
		children[e.ParentProcessID] = append(children[e.ParentProcessID], e.ProcessID)
		if needle != "" && strings.Contains(strings.ToLower(e.Image), needle) {
			set[e.ProcessID] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for pid := range set {
			for _, child := range children[pid] {
				if !set[child] {
					set[child] = true
					changed = true
				}
			}
		}
	}
	return set
}

// FilterEventsToSampleSet retains events whose process is in set, or whose
// image, source, target, target_filename, target_object, loaded_image or
// query_name fields otherwise reference the sample basename
// (spec §4.2 item 1: "filters all events to members of that set or whose
// image/source/target fields reference the sample").
func FilterEventsToSampleSet(events []RawEvent, set map[string]bool, sampleBasename string) []RawEvent {
	needle := strings.ToLower(sampleBasename)
	filtered := make([]RawEvent, 0, len(events))
	for _, e := range events {
		if set[e.ProcessID] {
			filtered = append(filtered, e)
			continue
		}
		if needle != "" && referencesSample(e, needle) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func referencesSample(e RawEvent, needle string) bool {
	if strings.Contains(strings.ToLower(e.Image), needle) {
		return true
	}
	for _, key := range []string{"source", "target", "target_filename", "target_object", "loaded_image", "query_name"} {
		if v, ok := e.Fields[key]; ok && strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func summarizeEvents(events []RawEvent) SysEventsSummary {
	var s SysEventsSummary
	libSeen := make(map[string]bool)

	for _, e := range events {
		switch e.Category {
		case CategoryProcessCreate:
			s.ProcessesCreated = append(s.ProcessesCreated, ProcessCreateEntry{
				ProcessID:       e.ProcessID,
				ParentProcessID: e.ParentProcessID,
				Image:           e.Image,
			})
		case CategoryNetworkConnect:
			s.NetworkConnections = append(s.NetworkConnections, NetworkEntry{
				ProcessID: e.ProcessID,
				DestIP:    e.Fields["dest_ip"],
				DestPort:  e.Fields["dest_port"],
			})
		case CategoryDNSQuery:
			s.DNSQueries = append(s.DNSQueries, DNSEntry{
				ProcessID: e.ProcessID,
				QueryName: e.Fields["query_name"],
			})
		case CategoryFileCreate:
			s.FilesCreated = append(s.FilesCreated, e.Fields["target_filename"])
		case CategoryRegistrySetValue:
			s.RegistryWrites = append(s.RegistryWrites, e.Fields["target_object"])
		case CategoryRegistryDeleteValue:
			s.RegistryDeletes = append(s.RegistryDeletes, e.Fields["target_object"])
		case CategoryRegistryRenameValue:
			s.RegistryRenames = append(s.RegistryRenames, e.Fields["target_object"])
		case CategoryImageLoad:
			lib := e.Fields["loaded_image"]
			if lib != "" && !libSeen[lib] {
				libSeen[lib] = true
				s.LoadedLibraries = append(s.LoadedLibraries, lib)
			}
		}
	}

	sort.Strings(s.LoadedLibraries)
	if len(s.LoadedLibraries) > maxLoadedLibraries {
		s.LoadedLibraries = s.LoadedLibraries[:maxLoadedLibraries]
	}
	return s
}
