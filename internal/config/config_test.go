// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Username = "user@example.com"
	cfg.MasterToken = "aas_et/secret"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 10*time.Minute, cfg.PruneInterval)
	assert.Equal(t, 60, cfg.RetentionDays)
	assert.Equal(t, 720, cfg.LookbackMinutes)
	assert.Equal(t, "America/Vancouver", cfg.Timezone)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: "concurrency",
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.RetentionDays = -1 },
			wantErr: "retention",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: "timezone",
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.Username = "" },
			wantErr: "NESTSYNC_USERNAME",
		},
		{
			name:    "missing master token",
			mutate:  func(c *Config) { c.MasterToken = "" },
			wantErr: "NESTSYNC_MASTER_TOKEN",
		},
		{
			name:    "zero check interval",
			mutate:  func(c *Config) { c.CheckInterval = 0 },
			wantErr: "check interval",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRetention(t *testing.T) {
	cfg := validConfig()

	cfg.RetentionDays = 60
	assert.Equal(t, 60*24*time.Hour, cfg.Retention())

	cfg.RetentionHours = true
	assert.Equal(t, 60*time.Hour, cfg.Retention())

	cfg.RetentionDays = 0
	assert.Equal(t, time.Duration(0), cfg.Retention())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NESTSYNC_CONCURRENCY", "3")
	t.Setenv("NESTSYNC_CHECK_INTERVAL", "90s")
	t.Setenv("NESTSYNC_RETENTION_HOURS", "yes")
	t.Setenv("NESTSYNC_OUTPUT", "/srv/clips")

	cfg := FromEnv()
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.CheckInterval)
	assert.True(t, cfg.RetentionHours)
	assert.Equal(t, "/srv/clips", cfg.OutputDir)
}

func TestFromEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("NESTSYNC_CONCURRENCY", "many")
	t.Setenv("NESTSYNC_PRUNE_INTERVAL", "soon")

	cfg := FromEnv()
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, DefaultPruneInterval, cfg.PruneInterval)
}

func TestLoadFilePrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("outputDir: /from/file\nconcurrency: 4\ncheckInterval: 2m\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	// ENV wins over file for concurrency; file wins over defaults elsewhere.
	t.Setenv("NESTSYNC_CONCURRENCY", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Concurrency)
	assert.Equal(t, "/from/file", cfg.OutputDir)
	assert.Equal(t, 2*time.Minute, cfg.CheckInterval)
	assert.Equal(t, DefaultPruneInterval, cfg.PruneInterval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
