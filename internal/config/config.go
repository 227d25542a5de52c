// Package config loads the service configuration: an optional config.toml,
// an optional per-environment overlay, then WELES_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/weles/pkg/database"
	"github.com/JaimeStill/weles/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvWelesConfigDir       = "WELES_CONFIG_DIR"
	EnvWelesEnv             = "WELES_ENV"
	EnvWelesShutdownTimeout = "WELES_SHUTDOWN_TIMEOUT"
	EnvWelesVersion         = "WELES_VERSION"
)

var databaseEnv = &database.Env{
	URL:             "WELES_DB_URL",
	Host:            "WELES_DB_HOST",
	Port:            "WELES_DB_PORT",
	Name:            "WELES_DB_NAME",
	User:            "WELES_DB_USER",
	Password:        "WELES_DB_PASSWORD",
	SSLMode:         "WELES_DB_SSL_MODE",
	MaxOpenConns:    "WELES_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "WELES_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "WELES_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "WELES_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "WELES_STORAGE_CONTAINER_NAME",
	ConnectionString: "WELES_STORAGE_CONNECTION_STRING",
}

// Config is the root configuration for the weles service.
type Config struct {
	Server          ServerConfig       `toml:"server"`
	Database        database.Config    `toml:"database"`
	Storage         storage.Config     `toml:"storage"`
	API             APIConfig          `toml:"api"`
	Workspace       WorkspaceConfig    `toml:"workspace"`
	Environments    EnvironmentsConfig `toml:"environments"`
	Runtimes        RuntimesConfig     `toml:"runtimes"`
	Tasks           TasksConfig        `toml:"tasks"`
	ShutdownTimeout string             `toml:"shutdown_timeout"`
	Version         string             `toml:"version"`
}

// Env returns the WELES_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvWelesEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads config.toml from WELES_CONFIG_DIR (default: the working
// directory) when present, merges config.<WELES_ENV>.toml over it, and
// finalizes every section. Unknown keys in either file are an error.
func Load() (*Config, error) {
	dir := os.Getenv(EnvWelesConfigDir)
	if dir == "" {
		dir = "."
	}

	cfg := &Config{}
	if err := decodeIfExists(filepath.Join(dir, BaseConfigFile), cfg); err != nil {
		return nil, err
	}

	if env := os.Getenv(EnvWelesEnv); env != "" {
		overlay := &Config{}
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if err := decodeIfExists(path, overlay); err != nil {
			return nil, fmt.Errorf("load overlay: %w", err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Workspace.Merge(&overlay.Workspace)
	c.Environments.Merge(&overlay.Environments)
	c.Runtimes.Merge(&overlay.Runtimes)
	c.Tasks.Merge(&overlay.Tasks)
}

func (c *Config) finalize() error {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if v := os.Getenv(EnvWelesShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvWelesVersion); v != "" {
		c.Version = v
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}

	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"api", c.API.Finalize},
		{"workspace", c.Workspace.Finalize},
		{"environments", c.Environments.Finalize},
		{"runtimes", c.Runtimes.Finalize},
		{"tasks", c.Tasks.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// decodeIfExists strictly decodes the TOML file at path into cfg. A missing
// file leaves cfg untouched.
func decodeIfExists(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
