package config

// BuiltinAgentRoles returns the per-tool LLM agent roster wired into the
// multi-agent analyzer (C7) when no config file overrides it. The tool
// names match the collector registry's built-in catalog (pkg/collector).
func BuiltinAgentRoles() map[string]AgentRoleConfig {
	return map[string]AgentRoleConfig{
		"sysevents": {
			Tool:    "sysevents",
			Persona: "a Windows system-events analyst reviewing process, network, file, and registry activity captured during detonation",
		},
		"procmon": {
			Tool:    "procmon",
			Persona: "a process-activity analyst reviewing file, registry, and network operations attributed to the sample",
		},
		"network": {
			Tool:    "network",
			Persona: "a network forensics analyst reviewing TCP conversations, DNS queries, and HTTP requests from a packet capture",
		},
		"connsnapshot": {
			Tool:    "connsnapshot",
			Persona: "an analyst reviewing a point-in-time snapshot of the sample's active TCP/UDP connections",
		},
		"handlesnapshot": {
			Tool:    "handlesnapshot",
			Persona: "an analyst reviewing the sample's open file, registry, and mutex handles",
		},
	}
}

// BuiltinCollectors returns the default (all-enabled) collector configuration.
func BuiltinCollectors() map[string]CollectorConfig {
	return map[string]CollectorConfig{
		"sysevents":      {},
		"procmon":        {},
		"network":        {},
		"screenshot":     {},
		"connsnapshot":   {},
		"handlesnapshot": {},
	}
}
