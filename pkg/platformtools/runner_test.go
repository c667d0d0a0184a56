package platformtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_BindsExecToPointerReceiver(t *testing.T) {
	r := newRunner("/usr/bin/true")
	assert.Equal(t, "/usr/bin/true", r.binaryPath)
	require.NotNil(t, r.run)
}

func fakeRunner(response []byte, err error) (*runner, *[][]string) {
	var calls [][]string
	r := newRunner("toolbin")
	r.run = func(ctx context.Context, args ...string) ([]byte, error) {
		calls = append(calls, args)
		return response, err
	}
	return r, &calls
}
