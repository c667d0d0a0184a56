package config

// CollectorConfig is the user-overridable portion of a single collector's
// configuration. Most fields are optional; the registry (pkg/collector)
// falls back to compiled-in behavior when a field is zero-valued.
type CollectorConfig struct {
	// Enabled disables a collector entirely when false (it is simply
	// skipped by the registry rather than reporting "unavailable").
	Enabled *bool `yaml:"enabled,omitempty"`

	// ToolPath overrides the path to the collector's backing executable,
	// e.g. the process-monitor binary or the packet-capture binary.
	ToolPath string `yaml:"tool_path,omitempty"`
}

// AgentRoleConfig describes one per-tool LLM agent role in the multi-agent
// analyzer (C7): which collector's artifact it reads and what persona/
// instructions frame its prompt.
type AgentRoleConfig struct {
	// Tool is the collector name whose artifact this role analyzes
	// (must match a name in the collector registry).
	Tool string `yaml:"tool"`

	// Persona is a short role description woven into the prompt, e.g.
	// "a network forensics analyst reviewing packet capture summaries".
	Persona string `yaml:"persona"`

	// ResponseSchemaHint is appended to the prompt as a reminder of the
	// expected JSON shape (tool analysis result, spec §3).
	ResponseSchemaHint string `yaml:"response_schema_hint,omitempty"`
}

// TarsyYAMLConfig-equivalent: the on-disk config file shape.
type FileConfig struct {
	Defaults   *Defaults                  `yaml:"defaults"`
	Collectors map[string]CollectorConfig `yaml:"collectors"`
	AgentRoles map[string]AgentRoleConfig `yaml:"agent_roles"`
	LLM        LLMConfig                  `yaml:"llm"`
	Hypervisor HypervisorConfig           `yaml:"hypervisor"`
}

// LLMConfig configures the gRPC transport to the LLM sidecar (C7).
type LLMConfig struct {
	Address string `yaml:"address,omitempty"`
	Model   string `yaml:"model,omitempty"`
}

// HypervisorConfig configures the CLI wrapper (§6.4).
type HypervisorConfig struct {
	BinaryPath string `yaml:"binary_path,omitempty"`
	VMName     string `yaml:"vm_name,omitempty"`
}
