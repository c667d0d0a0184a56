package platformtools

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cloudlab/detonator/pkg/collector"
)

// ProcMon implements collector.ProcessActivityTool by driving a
// Sysinternals-Procmon-style CLI: terminate, start a fresh capture to a
// known log file, and convert that log to CSV rows (spec §4.2 item 2).
type ProcMon struct {
	*runner
	logPath string
}

// NewProcMon builds a ProcMon backed by binaryPath, writing its capture
// log to logPath.
func NewProcMon(binaryPath, logPath string) *ProcMon {
	return &ProcMon{runner: newRunner(binaryPath), logPath: logPath}
}

// Terminate stops any running instance, force-killing on overrun (spec
// §4.2 item 2, §5 Timeouts).
func (p *ProcMon) Terminate(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := p.run(ctx, "/Terminate")
	return err
}

// StartFresh begins a new capture session writing to logPath.
func (p *ProcMon) StartFresh(ctx context.Context) error {
	_, err := p.run(ctx, "/Quiet", "/Minimized", "/BackingFile", p.logPath)
	return err
}

// ConvertToCSV converts the backing log to CSV and parses it into rows
// (spec §4.2 item 2). CSV columns: process_name,operation,path.
func (p *ProcMon) ConvertToCSV(ctx context.Context) ([]collector.ProcMonRow, error) {
	csvPath := p.logPath + ".csv"
	if _, err := p.run(ctx, "/OpenLog", p.logPath, "/SaveAs", csvPath); err != nil {
		return nil, fmt.Errorf("converting procmon log to csv: %w", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		return nil, fmt.Errorf("reading converted procmon csv: %w", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, err
	}
	result := make([]collector.ProcMonRow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		result = append(result, collector.ProcMonRow{
			ProcessName: strings.TrimSpace(row[0]),
			Operation:   strings.TrimSpace(row[1]),
			Path:        strings.TrimSpace(row[2]),
		})
	}
	return result, nil
}
