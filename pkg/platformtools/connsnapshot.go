package platformtools

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/cloudlab/detonator/pkg/collector"
)

// ConnList implements collector.ConnectionSnapshotTool by driving a
// netstat-style CLI and parsing its CSV output: protocol,local_addr,
// remote_addr,state,process_name (spec §4.2 item 5).
type ConnList struct {
	*runner
}

// NewConnList builds a ConnList backed by binaryPath.
func NewConnList(binaryPath string) *ConnList {
	return &ConnList{runner: newRunner(binaryPath)}
}

// ListConnections lists every active TCP/UDP connection.
func (c *ConnList) ListConnections(ctx context.Context) ([]collector.ConnectionRow, error) {
	out, err := c.run(ctx, "-ano", "-p", "tcp,udp")
	if err != nil {
		return nil, err
	}
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, err
	}
	result := make([]collector.ConnectionRow, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		result = append(result, collector.ConnectionRow{
			Protocol:    strings.TrimSpace(row[0]),
			LocalAddr:   strings.TrimSpace(row[1]),
			RemoteAddr:  strings.TrimSpace(row[2]),
			State:       strings.TrimSpace(row[3]),
			ProcessName: strings.TrimSpace(row[4]),
		})
	}
	return result, nil
}
