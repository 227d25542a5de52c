package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvTasksWorkers         = "WELES_TASKS_WORKERS"
	EnvTasksQueueSize       = "WELES_TASKS_QUEUE_SIZE"
	EnvTasksRetainPolls     = "WELES_TASKS_RETAIN_POLLS"
	EnvTasksRetainTTL       = "WELES_TASKS_RETAIN_TTL"
	EnvTasksAbandonAfter    = "WELES_TASKS_ABANDON_AFTER"
	EnvTasksJanitorInterval = "WELES_TASKS_JANITOR_INTERVAL"
)

// TasksConfig sizes the provisioning worker pool and the retention of
// finished task payloads.
type TasksConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
	// RetainPolls is how many polls a finished task answers before eviction.
	RetainPolls int `toml:"retain_polls"`
	// RetainTTL bounds how long a finished task lives after its first poll.
	RetainTTL string `toml:"retain_ttl"`
	// AbandonAfter bounds how long a finished task lives if never polled.
	AbandonAfter    string `toml:"abandon_after"`
	JanitorInterval string `toml:"janitor_interval"`
}

// RetainTTLDuration returns RetainTTL as a time.Duration.
func (c *TasksConfig) RetainTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetainTTL)
	return d
}

// AbandonAfterDuration returns AbandonAfter as a time.Duration.
func (c *TasksConfig) AbandonAfterDuration() time.Duration {
	d, _ := time.ParseDuration(c.AbandonAfter)
	return d
}

// JanitorIntervalDuration returns JanitorInterval as a time.Duration.
func (c *TasksConfig) JanitorIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.JanitorInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *TasksConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *TasksConfig) Merge(overlay *TasksConfig) {
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
	if overlay.RetainPolls != 0 {
		c.RetainPolls = overlay.RetainPolls
	}
	if overlay.RetainTTL != "" {
		c.RetainTTL = overlay.RetainTTL
	}
	if overlay.AbandonAfter != "" {
		c.AbandonAfter = overlay.AbandonAfter
	}
	if overlay.JanitorInterval != "" {
		c.JanitorInterval = overlay.JanitorInterval
	}
}

func (c *TasksConfig) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.RetainPolls == 0 {
		c.RetainPolls = 3
	}
	if c.RetainTTL == "" {
		c.RetainTTL = "10m"
	}
	if c.AbandonAfter == "" {
		c.AbandonAfter = "24h"
	}
	if c.JanitorInterval == "" {
		c.JanitorInterval = "1m"
	}
}

func (c *TasksConfig) loadEnv() {
	if v := os.Getenv(EnvTasksWorkers); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		}
	}
	if v := os.Getenv(EnvTasksQueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
	if v := os.Getenv(EnvTasksRetainPolls); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RetainPolls = n
		}
	}
	if v := os.Getenv(EnvTasksRetainTTL); v != "" {
		c.RetainTTL = v
	}
	if v := os.Getenv(EnvTasksAbandonAfter); v != "" {
		c.AbandonAfter = v
	}
	if v := os.Getenv(EnvTasksJanitorInterval); v != "" {
		c.JanitorInterval = v
	}
}

func (c *TasksConfig) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1: %d", c.Workers)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1: %d", c.QueueSize)
	}
	if c.RetainPolls < 1 {
		return fmt.Errorf("retain_polls must be at least 1: %d", c.RetainPolls)
	}
	if _, err := time.ParseDuration(c.RetainTTL); err != nil {
		return fmt.Errorf("invalid retain_ttl: %w", err)
	}
	if _, err := time.ParseDuration(c.AbandonAfter); err != nil {
		return fmt.Errorf("invalid abandon_after: %w", err)
	}
	d, err := time.ParseDuration(c.JanitorInterval)
	if err != nil {
		return fmt.Errorf("invalid janitor_interval: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("janitor_interval must be positive")
	}
	return nil
}
