package platformtools

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/cloudlab/detonator/pkg/collector"
)

// HandleList implements collector.HandleSnapshotTool by driving a
// Sysinternals-handle-style CLI and parsing its CSV output:
// process_name,handle_type,name (spec §4.2 item 6).
type HandleList struct {
	*runner
}

// NewHandleList builds a HandleList backed by binaryPath.
func NewHandleList(binaryPath string) *HandleList {
	return &HandleList{runner: newRunner(binaryPath)}
}

// ListForProcess lists handles owned by the named process.
func (h *HandleList) ListForProcess(ctx context.Context, processName string) ([]collector.HandleRow, error) {
	out, err := h.run(ctx, "-p", processName, "-accepteula", "-nobanner")
	if err != nil {
		return nil, err
	}
	return parseHandleRows(out)
}

// ListAll lists every handle system-wide.
func (h *HandleList) ListAll(ctx context.Context) ([]collector.HandleRow, error) {
	out, err := h.run(ctx, "-a", "-accepteula", "-nobanner")
	if err != nil {
		return nil, err
	}
	return parseHandleRows(out)
}

func parseHandleRows(out []byte) ([]collector.HandleRow, error) {
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, err
	}
	result := make([]collector.HandleRow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		result = append(result, collector.HandleRow{
			ProcessName: strings.TrimSpace(row[0]),
			HandleType:  strings.TrimSpace(row[1]),
			Name:        strings.TrimSpace(row[2]),
		})
	}
	return result, nil
}
