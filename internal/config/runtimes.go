package config

import (
	"fmt"
	"os"
	"time"
)

const (
	EnvRuntimesPythonTool      = "WELES_RUNTIMES_PYTHON_TOOL"
	EnvRuntimesDispatchTimeout = "WELES_RUNTIMES_DISPATCH_TIMEOUT"
	EnvRuntimesScriptsDir      = "WELES_RUNTIMES_SCRIPTS_DIR"
	EnvRuntimesInterpretersDir = "WELES_RUNTIMES_INTERPRETERS_DIR"
)

// RuntimesConfig locates interpreters and model scripts. Relative
// directories resolve against the workspace root.
type RuntimesConfig struct {
	PythonTool      string `toml:"python_tool"`
	DispatchTimeout string `toml:"dispatch_timeout"`
	ScriptsDir      string `toml:"scripts_dir"`
	InterpretersDir string `toml:"interpreters_dir"`
}

// DispatchTimeoutDuration returns DispatchTimeout as a time.Duration.
func (c *RuntimesConfig) DispatchTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DispatchTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RuntimesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *RuntimesConfig) Merge(overlay *RuntimesConfig) {
	if overlay.PythonTool != "" {
		c.PythonTool = overlay.PythonTool
	}
	if overlay.DispatchTimeout != "" {
		c.DispatchTimeout = overlay.DispatchTimeout
	}
	if overlay.ScriptsDir != "" {
		c.ScriptsDir = overlay.ScriptsDir
	}
	if overlay.InterpretersDir != "" {
		c.InterpretersDir = overlay.InterpretersDir
	}
}

func (c *RuntimesConfig) loadDefaults() {
	if c.PythonTool == "" {
		c.PythonTool = "virtualenv"
	}
	if c.DispatchTimeout == "" {
		c.DispatchTimeout = "10m"
	}
	if c.ScriptsDir == "" {
		c.ScriptsDir = "scripts"
	}
	if c.InterpretersDir == "" {
		c.InterpretersDir = "interpreters"
	}
}

func (c *RuntimesConfig) loadEnv() {
	if v := os.Getenv(EnvRuntimesPythonTool); v != "" {
		c.PythonTool = v
	}
	if v := os.Getenv(EnvRuntimesDispatchTimeout); v != "" {
		c.DispatchTimeout = v
	}
	if v := os.Getenv(EnvRuntimesScriptsDir); v != "" {
		c.ScriptsDir = v
	}
	if v := os.Getenv(EnvRuntimesInterpretersDir); v != "" {
		c.InterpretersDir = v
	}
}

func (c *RuntimesConfig) validate() error {
	d, err := time.ParseDuration(c.DispatchTimeout)
	if err != nil {
		return fmt.Errorf("invalid dispatch_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("dispatch_timeout must be positive")
	}
	return nil
}
