package platformtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleList_ListForProcess_PassesProcessName(t *testing.T) {
	r, calls := fakeRunner([]byte("malware.exe,File,C:\\Windows\\System32\\kernel32.dll\n"), nil)
	h := &HandleList{runner: r}
	rows, err := h.ListForProcess(context.Background(), "malware.exe")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "malware.exe", rows[0].ProcessName)
	assert.Equal(t, "File", rows[0].HandleType)
	assert.Equal(t, "C:\\Windows\\System32\\kernel32.dll", rows[0].Name)
	assert.Equal(t, [][]string{{"-p", "malware.exe", "-accepteula", "-nobanner"}}, *calls)
}

func TestHandleList_ListAll_IssuesAllFlag(t *testing.T) {
	r, calls := fakeRunner(nil, nil)
	h := &HandleList{runner: r}
	_, err := h.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"-a", "-accepteula", "-nobanner"}}, *calls)
}
