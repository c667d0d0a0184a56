// Package config loads and merges YAML configuration for both the guest
// agent and the host orchestrator: collector toggles, per-tool LLM agent
// roles, LLM transport settings, and the hypervisor CLI wrapper settings.
package config

// Config is the umbrella configuration object returned by Load.
type Config struct {
	path string

	Defaults   *Defaults
	Collectors map[string]CollectorConfig
	AgentRoles map[string]AgentRoleConfig
	LLM        LLMConfig
	Hypervisor HypervisorConfig
}

// Path returns the config file path this Config was loaded from ("" for
// built-in-only configuration).
func (c *Config) Path() string {
	return c.path
}

// Stats summarizes the loaded configuration for health/status reporting.
type Stats struct {
	Collectors int
	AgentRoles int
}

// Stats returns the number of configured collectors and agent roles.
func (c *Config) Stats() Stats {
	return Stats{
		Collectors: len(c.Collectors),
		AgentRoles: len(c.AgentRoles),
	}
}

// CollectorEnabled reports whether the named collector is enabled. Unknown
// collectors default to enabled (the registry still gates on availability).
func (c *Config) CollectorEnabled(name string) bool {
	cfg, ok := c.Collectors[name]
	if !ok || cfg.Enabled == nil {
		return true
	}
	return *cfg.Enabled
}

// ToolPath returns the configured tool path override for a collector, or
// "" when none is configured (the collector then uses its compiled-in default).
func (c *Config) ToolPath(name string) string {
	return c.Collectors[name].ToolPath
}
