package platformtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketCapture_StartCapture_PassesDestFile(t *testing.T) {
	r, calls := fakeRunner(nil, nil)
	p := &PacketCapture{runner: r}
	require.NoError(t, p.StartCapture(context.Background(), "/tmp/cap.pcap"))
	assert.Equal(t, [][]string{{"-i", "any", "-w", "/tmp/cap.pcap"}}, *calls)
}

func TestPacketCapture_StopCapture_IssuesStop(t *testing.T) {
	r, calls := fakeRunner(nil, nil)
	p := &PacketCapture{runner: r}
	require.NoError(t, p.StopCapture(context.Background()))
	assert.Equal(t, [][]string{{"-stop"}}, *calls)
}

func TestPacketCapture_TCPConversations_ParsesCSV(t *testing.T) {
	r, _ := fakeRunner([]byte("10.0.2.15,49512,93.184.216.34,443\n"), nil)
	p := &PacketCapture{runner: r}
	convs, err := p.TCPConversations(context.Background(), "/tmp/cap.pcap")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "10.0.2.15", convs[0].SrcIP)
	assert.Equal(t, "49512", convs[0].SrcPort)
	assert.Equal(t, "93.184.216.34", convs[0].DstIP)
	assert.Equal(t, "443", convs[0].DstPort)
}

func TestPacketCapture_DNSQueryNames_TrimsBlankLines(t *testing.T) {
	r, _ := fakeRunner([]byte("evil.example.com\n\nmalware.test\n"), nil)
	p := &PacketCapture{runner: r}
	names, err := p.DNSQueryNames(context.Background(), "/tmp/cap.pcap")
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.example.com", "malware.test"}, names)
}

func TestPacketCapture_HTTPRequests_ParsesCSV(t *testing.T) {
	r, _ := fakeRunner([]byte("evil.example.com,/payload.bin,GET\n"), nil)
	p := &PacketCapture{runner: r}
	reqs, err := p.HTTPRequests(context.Background(), "/tmp/cap.pcap")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "evil.example.com", reqs[0].Host)
	assert.Equal(t, "/payload.bin", reqs[0].URI)
	assert.Equal(t, "GET", reqs[0].Method)
}
