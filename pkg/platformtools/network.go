package platformtools

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/cloudlab/detonator/pkg/collector"
)

// PacketCapture implements collector.NetworkCaptureTool by driving a
// tshark/dumpcap-style packet capture binary: start/stop live capture,
// then post-process the capture file with three query modes (spec §4.2
// item 3).
type PacketCapture struct {
	*runner
}

// NewPacketCapture builds a PacketCapture backed by binaryPath.
func NewPacketCapture(binaryPath string) *PacketCapture {
	return &PacketCapture{runner: newRunner(binaryPath)}
}

// StartCapture begins writing packets to destFile.
func (p *PacketCapture) StartCapture(ctx context.Context, destFile string) error {
	_, err := p.run(ctx, "-i", "any", "-w", destFile)
	return err
}

// StopCapture stops the running capture.
func (p *PacketCapture) StopCapture(ctx context.Context) error {
	_, err := p.run(ctx, "-stop")
	return err
}

// TCPConversations runs the TCP-conversations query against captureFile
// and parses its CSV output: src_ip,src_port,dst_ip,dst_port.
func (p *PacketCapture) TCPConversations(ctx context.Context, captureFile string) ([]collector.TCPConversation, error) {
	out, err := p.run(ctx, "-r", captureFile, "-q", "-z", "conv,tcp")
	if err != nil {
		return nil, err
	}
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, err
	}
	convs := make([]collector.TCPConversation, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		convs = append(convs, collector.TCPConversation{
			SrcIP:   strings.TrimSpace(row[0]),
			SrcPort: strings.TrimSpace(row[1]),
			DstIP:   strings.TrimSpace(row[2]),
			DstPort: strings.TrimSpace(row[3]),
		})
	}
	return convs, nil
}

// DNSQueryNames extracts DNS query names from captureFile in capture
// order; duplicates are not removed.
func (p *PacketCapture) DNSQueryNames(ctx context.Context, captureFile string) ([]string, error) {
	out, err := p.run(ctx, "-r", captureFile, "-Y", "dns.flags.response==0", "-T", "fields", "-e", "dns.qry.name")
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			names = append(names, l)
		}
	}
	return names, nil
}

// HTTPRequests parses HTTP requests from captureFile: host,uri,method
// CSV rows.
func (p *PacketCapture) HTTPRequests(ctx context.Context, captureFile string) ([]collector.HTTPRequest, error) {
	out, err := p.run(ctx, "-r", captureFile, "-Y", "http.request", "-T", "fields",
		"-e", "http.host", "-e", "http.request.uri", "-e", "http.request.method", "-E", "separator=,")
	if err != nil {
		return nil, err
	}
	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	if err != nil {
		return nil, err
	}
	reqs := make([]collector.HTTPRequest, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		reqs = append(reqs, collector.HTTPRequest{
			Host:   strings.TrimSpace(row[0]),
			URI:    strings.TrimSpace(row[1]),
			Method: strings.TrimSpace(row[2]),
		})
	}
	return reqs, nil
}
