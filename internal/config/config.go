// SPDX-License-Identifier: MIT

// Package config loads daemon configuration with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // clip paths must not depend on the host zone database
)

// Defaults mirror the CLI defaults of the daemon.
const (
	DefaultConcurrency   = 10
	DefaultCheckInterval = 5 * time.Minute
	DefaultPruneInterval = 10 * time.Minute
	DefaultRetentionDays = 60
	DefaultTimezone      = "America/Vancouver"

	// DefaultLookbackMinutes is how far back each discovery pass looks for
	// recorded events.
	DefaultLookbackMinutes = 12 * 60
)

// Config holds the full daemon configuration.
type Config struct {
	// OutputDir is the root of the date-partitioned clip tree.
	OutputDir string

	// Concurrency caps the number of simultaneous clip downloads.
	Concurrency int

	// CheckInterval is the delay between discovery passes.
	CheckInterval time.Duration

	// PruneInterval is the delay between retention prune passes.
	PruneInterval time.Duration

	// RetentionDays is how long clips are kept; 0 disables pruning.
	// When RetentionHours is set the same number is interpreted as hours
	// (useful for testing retention behaviour quickly).
	RetentionDays  int
	RetentionHours bool

	// LookbackMinutes is the discovery window per pass.
	LookbackMinutes int

	// Timezone names the fixed zone used for output paths and file times,
	// independent of the host timezone.
	Timezone string

	// Once runs a single discovery pass and exits.
	Once bool

	// ListenAddr enables the status/metrics HTTP API when non-empty.
	ListenAddr string

	// LogLevel configures the global logger ("debug", "info", ...).
	LogLevel string

	// Username and MasterToken are the account credentials. Sourced from the
	// environment only; never written to a config file.
	Username    string
	MasterToken string
}

// FromEnv builds a Config from environment variables layered over defaults.
func FromEnv() Config {
	return FromEnvOver(Defaults())
}

// FromEnvOver layers environment variables over the supplied base config,
// typically Defaults() or a file-loaded config.
func FromEnvOver(base Config) Config {
	cfg := base
	cfg.OutputDir = ParseString("NESTSYNC_OUTPUT", base.OutputDir)
	cfg.Concurrency = ParseInt("NESTSYNC_CONCURRENCY", base.Concurrency)
	cfg.CheckInterval = ParseDuration("NESTSYNC_CHECK_INTERVAL", base.CheckInterval)
	cfg.PruneInterval = ParseDuration("NESTSYNC_PRUNE_INTERVAL", base.PruneInterval)
	cfg.RetentionDays = ParseInt("NESTSYNC_RETENTION_DAYS", base.RetentionDays)
	cfg.RetentionHours = ParseBool("NESTSYNC_RETENTION_HOURS", base.RetentionHours)
	cfg.LookbackMinutes = ParseInt("NESTSYNC_LOOKBACK_MINUTES", base.LookbackMinutes)
	cfg.Timezone = ParseString("NESTSYNC_TIMEZONE", base.Timezone)
	cfg.Once = ParseBool("NESTSYNC_ONCE", base.Once)
	cfg.ListenAddr = ParseString("NESTSYNC_LISTEN", base.ListenAddr)
	cfg.LogLevel = ParseString("NESTSYNC_LOG_LEVEL", base.LogLevel)
	cfg.Username = ParseString("NESTSYNC_USERNAME", base.Username)
	cfg.MasterToken = ParseString("NESTSYNC_MASTER_TOKEN", base.MasterToken)
	return cfg
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		OutputDir:       ".",
		Concurrency:     DefaultConcurrency,
		CheckInterval:   DefaultCheckInterval,
		PruneInterval:   DefaultPruneInterval,
		RetentionDays:   DefaultRetentionDays,
		LookbackMinutes: DefaultLookbackMinutes,
		Timezone:        DefaultTimezone,
		LogLevel:        "info",
	}
}

// Validate fails fast on configuration that cannot produce a working daemon.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1 (got %d)", c.Concurrency)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive (got %s)", c.CheckInterval)
	}
	if c.PruneInterval <= 0 {
		return fmt.Errorf("prune interval must be positive (got %s)", c.PruneInterval)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention must be >= 0 (got %d)", c.RetentionDays)
	}
	if c.LookbackMinutes < 1 {
		return fmt.Errorf("lookback minutes must be >= 1 (got %d)", c.LookbackMinutes)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Username == "" {
		return fmt.Errorf("NESTSYNC_USERNAME is required")
	}
	if c.MasterToken == "" {
		return fmt.Errorf("NESTSYNC_MASTER_TOKEN is required")
	}
	return nil
}

// Location resolves the configured timezone. Validate must have succeeded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Validate rejects unloadable zones; reaching this is a programming error.
		panic(fmt.Sprintf("config: timezone %q: %v", c.Timezone, err))
	}
	return loc
}

// Retention converts the retention knobs into a duration. Zero means "keep
// forever".
func (c Config) Retention() time.Duration {
	if c.RetentionDays == 0 {
		return 0
	}
	unit := 24 * time.Hour
	if c.RetentionHours {
		unit = time.Hour
	}
	return time.Duration(c.RetentionDays) * unit
}
