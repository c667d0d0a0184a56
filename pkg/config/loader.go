package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config file at path (if it exists), expands
// environment variables, and merges it over the built-in defaults and
// agent-role/collector catalogs. An empty path, or a path that does not
// exist, yields a built-in-only Config rather than an error — both the
// guest agent and the host orchestrator must be able to run with zero
// configuration (spec §6.6: `--workdir`/`--share` are the only required
// flags).
func Load(path string) (*Config, error) {
	defaults := BuiltinDefaults()
	collectors := BuiltinCollectors()
	agentRoles := BuiltinAgentRoles()

	var file FileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			raw = ExpandEnv(raw)
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// No config file: run entirely on built-ins.
		default:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if file.Defaults != nil {
		if err := mergo.Merge(defaults, file.Defaults, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging defaults: %w", err)
		}
	}
	defaults.ScreenshotIntervalSeconds = ClampScreenshotInterval(defaults.ScreenshotIntervalSeconds)

	cfg := &Config{
		path:       path,
		Defaults:   defaults,
		Collectors: mergeCollectors(collectors, file.Collectors),
		AgentRoles: mergeAgentRoles(agentRoles, file.AgentRoles),
		LLM:        file.LLM,
		Hypervisor: file.Hypervisor,
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
