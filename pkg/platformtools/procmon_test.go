package platformtools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcMon_Terminate_IssuesTerminateFlag(t *testing.T) {
	r, calls := fakeRunner(nil, nil)
	p := &ProcMon{runner: r, logPath: "log.pml"}
	require.NoError(t, p.Terminate(context.Background(), time.Second))
	assert.Equal(t, [][]string{{"/Terminate"}}, *calls)
}

func TestProcMon_StartFresh_PassesBackingFile(t *testing.T) {
	r, calls := fakeRunner(nil, nil)
	p := &ProcMon{runner: r, logPath: "log.pml"}
	require.NoError(t, p.StartFresh(context.Background()))
	assert.Equal(t, [][]string{{"/Quiet", "/Minimized", "/BackingFile", "log.pml"}}, *calls)
}

func TestProcMon_ConvertToCSV_ReadsGeneratedFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "log.pml")
	csvPath := logPath + ".csv"
	require.NoError(t, os.WriteFile(csvPath, []byte("notepad.exe,WriteFile,C:\\temp\\a.txt\n"), 0o644))

	r, calls := fakeRunner(nil, nil)
	p := &ProcMon{runner: r, logPath: logPath}
	rows, err := p.ConvertToCSV(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "notepad.exe", rows[0].ProcessName)
	assert.Equal(t, "WriteFile", rows[0].Operation)
	assert.Equal(t, "C:\\temp\\a.txt", rows[0].Path)
	assert.Equal(t, [][]string{{"/OpenLog", logPath, "/SaveAs", csvPath}}, *calls)
}

func TestProcMon_ConvertToCSV_MissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "log.pml")
	r, _ := fakeRunner(nil, nil)
	p := &ProcMon{runner: r, logPath: logPath}
	_, err := p.ConvertToCSV(context.Background())
	assert.Error(t, err)
}
