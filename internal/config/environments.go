package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvEnvironmentsBuildTimeout = "WELES_ENVIRONMENTS_BUILD_TIMEOUT"
	EnvEnvironmentsClaimGrace   = "WELES_ENVIRONMENTS_CLAIM_GRACE"
	EnvEnvironmentsClaimPoll    = "WELES_ENVIRONMENTS_CLAIM_POLL"
)

// EnvironmentsConfig bounds environment builds and the claims that guard them.
type EnvironmentsConfig struct {
	BuildTimeout string `toml:"build_timeout"`
	// ClaimGrace is added to BuildTimeout before a foreign claim is considered stale.
	ClaimGrace string `toml:"claim_grace"`
	// ClaimPoll is the initial interval between checks on a foreign claim.
	ClaimPoll string `toml:"claim_poll"`
}

// BuildTimeoutDuration returns BuildTimeout as a time.Duration.
func (c *EnvironmentsConfig) BuildTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BuildTimeout)
	return d
}

// ClaimGraceDuration returns ClaimGrace as a time.Duration.
func (c *EnvironmentsConfig) ClaimGraceDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClaimGrace)
	return d
}

// ClaimPollDuration returns ClaimPoll as a time.Duration.
func (c *EnvironmentsConfig) ClaimPollDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClaimPoll)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EnvironmentsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EnvironmentsConfig) Merge(overlay *EnvironmentsConfig) {
	if overlay.BuildTimeout != "" {
		c.BuildTimeout = overlay.BuildTimeout
	}
	if overlay.ClaimGrace != "" {
		c.ClaimGrace = overlay.ClaimGrace
	}
	if overlay.ClaimPoll != "" {
		c.ClaimPoll = overlay.ClaimPoll
	}
}

func (c *EnvironmentsConfig) loadDefaults() {
	if c.BuildTimeout == "" {
		c.BuildTimeout = "30m"
	}
	if c.ClaimGrace == "" {
		c.ClaimGrace = "5m"
	}
	if c.ClaimPoll == "" {
		c.ClaimPoll = "2s"
	}
}

func (c *EnvironmentsConfig) loadEnv() {
	if v := os.Getenv(EnvEnvironmentsBuildTimeout); v != "" {
		c.BuildTimeout = v
	}
	if v := os.Getenv(EnvEnvironmentsClaimGrace); v != "" {
		c.ClaimGrace = v
	}
	if v := os.Getenv(EnvEnvironmentsClaimPoll); v != "" {
		c.ClaimPoll = v
	}
}

func (c *EnvironmentsConfig) validate() error {
	for name, v := range map[string]string{
		"build_timeout": c.BuildTimeout,
		"claim_grace":   c.ClaimGrace,
		"claim_poll":    c.ClaimPoll,
	} {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
