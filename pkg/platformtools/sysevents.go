package platformtools

import (
	"context"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/cloudlab/detonator/pkg/collector"
)

// SysEventsReader implements collector.EventLogReader by shelling out to
// a platform event-log query binary (e.g. wevtutil on Windows) configured
// with a channel name. Output is CSV: event_id,category,process_id,
// parent_process_id,image.
type SysEventsReader struct {
	*runner
	channel string
}

// NewSysEventsReader builds a reader that queries the named event-log
// channel via binaryPath.
func NewSysEventsReader(binaryPath, channel string) *SysEventsReader {
	return &SysEventsReader{runner: newRunner(binaryPath), channel: channel}
}

// Query runs the configured query and parses its CSV output (spec §4.2
// item 1).
func (r *SysEventsReader) Query(ctx context.Context) ([]collector.RawEvent, error) {
	out, err := r.run(ctx, "query-events", r.channel, "--format", "csv")
	if err != nil {
		return nil, err
	}
	return parseRawEvents(out)
}

// Clear clears the event-log channel (spec §4.3 step 5, best-effort).
func (r *SysEventsReader) Clear(ctx context.Context) error {
	_, err := r.run(ctx, "clear-log", r.channel)
	return err
}

func parseRawEvents(out []byte) ([]collector.RawEvent, error) {
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, err
	}
	events := make([]collector.RawEvent, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		id, _ := strconv.Atoi(strings.TrimSpace(row[0]))
		events = append(events, collector.RawEvent{
			EventID:         id,
			Category:        strings.TrimSpace(row[1]),
			ProcessID:       strings.TrimSpace(row[2]),
			ParentProcessID: strings.TrimSpace(row[3]),
			Image:           strings.TrimSpace(row[4]),
		})
	}
	return events, nil
}
