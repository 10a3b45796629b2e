package compaction

import "fmt"

// Default threshold values. All limits count events in the session log,
// not tokens; the runtime trades summary fidelity for a bounded context.
const (
	DefaultSoftTurnLimit     = 20
	DefaultHardTurnLimit     = 20
	DefaultToolAdvisoryLimit = 12
)

// Config holds the threshold configuration shared by all sessions.
type Config struct {
	// SoftTurnLimit is the event count above which an advisory nudge is
	// appended to the outgoing task text. No truncation happens.
	// Default: 20
	SoftTurnLimit int

	// HardTurnLimit is the event count above which the log is forcibly
	// summarized and truncated before the turn runs.
	// Default: 20
	HardTurnLimit int

	// ToolAdvisoryLimit is the tool count above which a warning is logged.
	// It never mutates session state.
	// Default: 12
	ToolAdvisoryLimit int
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		SoftTurnLimit:     DefaultSoftTurnLimit,
		HardTurnLimit:     DefaultHardTurnLimit,
		ToolAdvisoryLimit: DefaultToolAdvisoryLimit,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.SoftTurnLimit == 0 {
		c.SoftTurnLimit = DefaultSoftTurnLimit
	}
	if c.HardTurnLimit == 0 {
		c.HardTurnLimit = DefaultHardTurnLimit
	}
	if c.ToolAdvisoryLimit == 0 {
		c.ToolAdvisoryLimit = DefaultToolAdvisoryLimit
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.SoftTurnLimit <= 0 {
		return fmt.Errorf("%w: soft turn limit must be positive, got %d", ErrInvalidConfig, c.SoftTurnLimit)
	}
	if c.HardTurnLimit <= 0 {
		return fmt.Errorf("%w: hard turn limit must be positive, got %d", ErrInvalidConfig, c.HardTurnLimit)
	}
	if c.ToolAdvisoryLimit <= 0 {
		return fmt.Errorf("%w: tool advisory limit must be positive, got %d", ErrInvalidConfig, c.ToolAdvisoryLimit)
	}
	if c.SoftTurnLimit > c.HardTurnLimit {
		return fmt.Errorf("%w: soft turn limit (%d) must not exceed hard turn limit (%d)",
			ErrInvalidConfig, c.SoftTurnLimit, c.HardTurnLimit)
	}
	return nil
}
