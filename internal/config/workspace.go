package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvWorkspaceRoot    = "WELES_WORKSPACE_ROOT"
	EnvWorkspaceArchive = "WELES_WORKSPACE_ARCHIVE"
)

// WorkspaceConfig locates the on-disk registry state.
type WorkspaceConfig struct {
	Root string `toml:"root"`
	// Archive mirrors stored artifacts to blob storage when storage is configured.
	Archive *bool `toml:"archive"`
}

// ArchiveEnabled reports whether artifacts should be archived.
func (c *WorkspaceConfig) ArchiveEnabled() bool {
	return c.Archive != nil && *c.Archive
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkspaceConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkspaceConfig) Merge(overlay *WorkspaceConfig) {
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.Archive != nil {
		c.Archive = overlay.Archive
	}
}

func (c *WorkspaceConfig) loadDefaults() {
	if c.Root == "" {
		c.Root = "workspace"
	}
	if c.Archive == nil {
		enabled := true
		c.Archive = &enabled
	}
}

func (c *WorkspaceConfig) loadEnv() {
	if v := os.Getenv(EnvWorkspaceRoot); v != "" {
		c.Root = v
	}
	if v := os.Getenv(EnvWorkspaceArchive); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Archive = &enabled
		}
	}
}

func (c *WorkspaceConfig) validate() error {
	if c.Root == "" {
		return fmt.Errorf("root required")
	}
	return nil
}
