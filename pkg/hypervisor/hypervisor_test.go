package hypervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCLI(response []byte, err error) (*CLI, *[][]string) {
	var calls [][]string
	c := &CLI{binaryPath: "VBoxManage", vmName: "sandbox-01"}
	c.run = func(ctx context.Context, args ...string) ([]byte, error) {
		calls = append(calls, args)
		return response, err
	}
	return c, &calls
}

func TestStart_IssuesStartvm(t *testing.T) {
	c, calls := fakeCLI(nil, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, [][]string{{"startvm", "sandbox-01"}}, *calls)
}

func TestCaptureDisplay_PassesDestPath(t *testing.T) {
	c, calls := fakeCLI(nil, nil)
	require.NoError(t, c.CaptureDisplay(context.Background(), "/tmp/out.png", time.Second))
	assert.Equal(t, [][]string{{"controlvm", "sandbox-01", "screenshotpng", "/tmp/out.png"}}, *calls)
}

func TestGuestIP_ParsesValueLine(t *testing.T) {
	c, _ := fakeCLI([]byte("Name: /VirtualBox/GuestInfo/Net/0/V4/IP, value: ignored\nValue: 10.0.2.15\n"), nil)
	ip, err := c.GuestIP(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "10.0.2.15", ip)
}

func TestGuestIP_NoValueLine(t *testing.T) {
	c, _ := fakeCLI([]byte("No value set!\n"), nil)
	ip, err := c.GuestIP(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ip)
}
