package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Defaults.DetonationTimeoutSeconds)
	assert.True(t, cfg.CollectorEnabled("network"))
	assert.Len(t, cfg.AgentRoles, len(BuiltinAgentRoles()))
}

func TestLoad_MissingFileIsNotError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg.Defaults)
}

func TestLoad_OverridesAndEnvExpansion(t *testing.T) {
	t.Setenv("TOOL_PATH_OVERRIDE", "/opt/tools/procmon64.exe")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
defaults:
  detonation_timeout_seconds: 45
  screenshot_interval_seconds: 1
collectors:
  procmon:
    tool_path: ${TOOL_PATH_OVERRIDE}
  network:
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.Defaults.DetonationTimeoutSeconds)
	// screenshot_interval_seconds clamps to the §8 floor of 2.
	assert.Equal(t, MinScreenshotIntervalSeconds, cfg.Defaults.ScreenshotIntervalSeconds)
	assert.Equal(t, "/opt/tools/procmon64.exe", cfg.ToolPath("procmon"))
	assert.False(t, cfg.CollectorEnabled("network"))
	assert.True(t, cfg.CollectorEnabled("screenshot"))
}

func TestLoad_RejectsUnknownCollectorReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
agent_roles:
  ghost:
    tool: nonexistent
    persona: "a ghost"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrUnknownCollectorReference)
}

func TestClampScreenshotInterval(t *testing.T) {
	assert.Equal(t, 2, ClampScreenshotInterval(0))
	assert.Equal(t, 2, ClampScreenshotInterval(1))
	assert.Equal(t, 2, ClampScreenshotInterval(2))
	assert.Equal(t, 10, ClampScreenshotInterval(10))
}
