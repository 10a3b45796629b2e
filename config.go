package steering

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tenantwise/steering/compaction"
)

// DefaultMaxToolIterations caps the model/tool round-trips in one turn.
const DefaultMaxToolIterations = 10

// Config holds the tenant-independent runtime configuration shared by all
// sessions built from one registry.
type Config struct {
	// Preamble is the base system instruction text for every session.
	// Skill manifests are appended to it at session construction.
	Preamble string

	// Thresholds configures turn-count compaction and advisories.
	Thresholds compaction.Config

	// MaxToolIterations caps model/tool round-trips per turn.
	// Default: 10
	MaxToolIterations int

	// Logger receives runtime diagnostics. Defaults to log.Default().
	Logger *log.Logger
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	c := Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	c.Thresholds.ApplyDefaults()
	if c.MaxToolIterations == 0 {
		c.MaxToolIterations = DefaultMaxToolIterations
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.MaxToolIterations <= 0 {
		return fmt.Errorf("%w: max tool iterations must be positive, got %d",
			ErrInvalidConfig, c.MaxToolIterations)
	}
	return nil
}
