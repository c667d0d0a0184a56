package toolload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, reportDir, relPath, content string) {
	t.Helper()
	full := filepath.Join(reportDir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestJSONLoaderMissingFile(t *testing.T) {
	dir := t.TempDir()
	res := JSONLoader("sysevents", "sysevents/summary.json")(dir)
	assert.False(t, res.HasData)
	assert.Equal(t, NoDataMessage("sysevents"), res.PayloadText)
}

func TestJSONLoaderCompactsValidJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "sysevents/summary.json", `{
		"total_events": 3,
		"entries": ["a", "b"]
	}`)

	res := JSONLoader("sysevents", "sysevents/summary.json")(dir)
	require.True(t, res.HasData)
	assert.NotContains(t, res.PayloadText, "\n")
	assert.Contains(t, res.PayloadText, `"total_events":3`)
}

func TestJSONLoaderFallsBackOnMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "procmon/summary.json", "{not valid json")

	res := JSONLoader("procmon", "procmon/summary.json")(dir)
	assert.True(t, res.HasData)
	assert.Equal(t, "{not valid json", res.PayloadText)
}

func TestClipTruncatesOverBudget(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "network/summary.json", strings.Repeat("a", MaxToolPayloadChars*2))

	res := JSONLoader("network", "network/summary.json")(dir)
	require.True(t, res.HasData)
	assert.LessOrEqual(t, len(res.PayloadText), MaxToolPayloadChars)
	assert.True(t, strings.HasSuffix(res.PayloadText, "[truncated]"))
}

func TestTextLoaderTrimsAndClips(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "notes.txt", "  hello world  \n")

	res := TextLoader("notes", "notes.txt")(dir)
	require.True(t, res.HasData)
	assert.Equal(t, "hello world", res.PayloadText)
}

func TestTextLoaderEmptyFileReportsNoData(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "notes.txt", "   \n")

	res := TextLoader("notes", "notes.txt")(dir)
	assert.False(t, res.HasData)
}

func TestCSVLoaderCapsRows(t *testing.T) {
	dir := t.TempDir()
	lines := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, "row")
	}
	writeArtifact(t, dir, "connsnapshot/dump.csv", strings.Join(lines, "\n"))

	res := CSVLoader("connsnapshot", "connsnapshot/dump.csv", 5)(dir)
	require.True(t, res.HasData)
	assert.Equal(t, 5, strings.Count(res.PayloadText, "row"))
	assert.True(t, strings.HasSuffix(res.PayloadText, "[truncated]"))
}

func TestBuiltinLoadersCoverAllTools(t *testing.T) {
	loaders := BuiltinLoaders()
	for _, name := range []string{"sysevents", "procmon", "network", "connsnapshot", "handlesnapshot"} {
		_, ok := loaders[name]
		assert.True(t, ok, "missing loader for %s", name)
	}

	dir := t.TempDir()
	res := loaders["sysevents"](dir)
	assert.Equal(t, NoDataMessage("sysevents"), res.PayloadText)
}
