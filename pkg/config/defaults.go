package config

import "time"

// Defaults contains system-wide default values applied when a submission
// or collector does not override them.
type Defaults struct {
	// DetonationTimeoutSeconds is how long the sample runs before collectors stop.
	DetonationTimeoutSeconds int `yaml:"detonation_timeout_seconds,omitempty" validate:"omitempty,min=1"`

	// ScreenshotIntervalSeconds is the interval between display captures.
	// Clamped to a minimum of 2 seconds (§8 boundary behavior).
	ScreenshotIntervalSeconds int `yaml:"screenshot_interval_seconds,omitempty"`

	// PollInterval is how often the host orchestrator polls guest status.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// PollGracePeriod is added to the detonation timeout to compute the
	// host orchestrator's overall wait budget (spec §4.4 step 6).
	PollGracePeriod time.Duration `yaml:"poll_grace_period,omitempty"`

	// SubprocessTimeout bounds every external tool invocation inside the guest.
	SubprocessTimeout time.Duration `yaml:"subprocess_timeout,omitempty"`

	// LLMCallTimeout bounds every per-tool and summarizer LLM call (spec §5: 120s default).
	LLMCallTimeout time.Duration `yaml:"llm_call_timeout,omitempty"`
}

// MinScreenshotIntervalSeconds is the floor enforced on screenshot_interval (spec §8).
const MinScreenshotIntervalSeconds = 2

// ClampScreenshotInterval applies the §8 boundary rule.
func ClampScreenshotInterval(seconds int) int {
	if seconds < MinScreenshotIntervalSeconds {
		return MinScreenshotIntervalSeconds
	}
	return seconds
}

// BuiltinDefaults returns the defaults baked into the binary, used when a
// deployment carries no config file at all.
func BuiltinDefaults() *Defaults {
	return &Defaults{
		DetonationTimeoutSeconds: 120,
		ScreenshotIntervalSeconds: 5,
		PollInterval:              2 * time.Second,
		PollGracePeriod:           300 * time.Second,
		SubprocessTimeout:         30 * time.Second,
		LLMCallTimeout:            120 * time.Second,
	}
}
