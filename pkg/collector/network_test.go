package collector

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetworkTool struct {
	startErr, stopErr       error
	convs                   []TCPConversation
	convsErr                error
	dnsNames                []string
	dnsErr                  error
	httpReqs                []HTTPRequest
	httpErr                 error
	startCalls, stopCalls   int
}

func (f *fakeNetworkTool) StartCapture(ctx context.Context, dest string) error {
	f.startCalls++
	if f.startErr != nil {
		return f.startErr
	}
	return os.WriteFile(dest, nil, 0o644)
}
func (f *fakeNetworkTool) StopCapture(ctx context.Context) error {
	f.stopCalls++
	return f.stopErr
}
func (f *fakeNetworkTool) TCPConversations(ctx context.Context, file string) ([]TCPConversation, error) {
	return f.convs, f.convsErr
}
func (f *fakeNetworkTool) DNSQueryNames(ctx context.Context, file string) ([]string, error) {
	return f.dnsNames, f.dnsErr
}
func (f *fakeNetworkTool) HTTPRequests(ctx context.Context, file string) ([]HTTPRequest, error) {
	return f.httpReqs, f.httpErr
}

func TestNetworkCollector_FullLifecycle(t *testing.T) {
	tool := &fakeNetworkTool{
		convs:    []TCPConversation{{SrcIP: "10.0.0.2", DstIP: "1.2.3.4", DstPort: "443"}},
		dnsNames: []string{"b.example.com", "a.example.com", "a.example.com"},
		httpReqs: []HTTPRequest{{Host: "a.example.com", URI: "/", Method: "GET"}},
	}
	c := NewNetworkCollector(tool, t.TempDir())
	require.NoError(t, c.Start(context.Background(), StartConfig{}))
	require.NoError(t, c.Stop(context.Background()))

	result := c.Collect(context.Background())
	require.Equal(t, StatusOK, result.Status)
	assert.Equal(t, 1, tool.startCalls)
	assert.Equal(t, 1, tool.stopCalls)
}

func TestNetworkCollector_QueryErrorsAreNonFatal(t *testing.T) {
	tool := &fakeNetworkTool{dnsErr: errors.New("tshark crashed")}
	c := NewNetworkCollector(tool, t.TempDir())
	require.NoError(t, c.Start(context.Background(), StartConfig{}))

	result := c.Collect(context.Background())
	assert.Equal(t, StatusOK, result.Status)
}

func TestNetworkCollector_NoDataWithoutStart(t *testing.T) {
	c := NewNetworkCollector(&fakeNetworkTool{}, t.TempDir())
	assert.Equal(t, StatusNoData, c.Collect(context.Background()).Status)
}

func TestDedupeSorted(t *testing.T) {
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, dedupeSorted([]string{"b.example.com", "a.example.com", "a.example.com"}))
}
