package config

// mergeCollectors merges built-in and user-defined collector configurations.
// User-defined entries override built-ins with the same name; unknown
// collector names are carried through unchanged, and nothing warns about them.
func mergeCollectors(builtin, user map[string]CollectorConfig) map[string]CollectorConfig {
	result := make(map[string]CollectorConfig, len(builtin))
	for name, cfg := range builtin {
		result[name] = cfg
	}
	for name, cfg := range user {
		result[name] = cfg
	}
	return result
}

// mergeAgentRoles merges built-in and user-defined per-tool agent roles.
func mergeAgentRoles(builtin, user map[string]AgentRoleConfig) map[string]AgentRoleConfig {
	result := make(map[string]AgentRoleConfig, len(builtin))
	for name, cfg := range builtin {
		result[name] = cfg
	}
	for name, cfg := range user {
		result[name] = cfg
	}
	return result
}
