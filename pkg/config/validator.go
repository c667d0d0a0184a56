package config

import "fmt"

// Validate performs fail-fast validation of a loaded Config, mirroring the
// dependency order used by the teacher's Validator: defaults first, then
// the agent roles, each checked against the collector set it references.
// Collector entries themselves are not validated.
func Validate(cfg *Config) error {
	if err := validateDefaults(cfg.Defaults); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := validateAgentRoles(cfg); err != nil {
		return fmt.Errorf("agent roles: %w", err)
	}
	return nil
}

func validateDefaults(d *Defaults) error {
	if d.DetonationTimeoutSeconds < 1 {
		return &ValidationError{Field: "detonation_timeout_seconds", Err: fmt.Errorf("must be >= 1, got %d", d.DetonationTimeoutSeconds)}
	}
	if d.SubprocessTimeout <= 0 {
		return &ValidationError{Field: "subprocess_timeout", Err: fmt.Errorf("must be positive")}
	}
	if d.LLMCallTimeout <= 0 {
		return &ValidationError{Field: "llm_call_timeout", Err: fmt.Errorf("must be positive")}
	}
	return nil
}

func validateAgentRoles(cfg *Config) error {
	for name, role := range cfg.AgentRoles {
		if _, ok := cfg.Collectors[role.Tool]; !ok {
			return &ValidationError{
				Field: "agent_roles." + name + ".tool",
				Err:   fmt.Errorf("%w: %q", ErrUnknownCollectorReference, role.Tool),
			}
		}
	}
	return nil
}
