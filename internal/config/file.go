// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML config file. All fields are optional; unset
// fields keep their defaults. Credentials are deliberately absent: secrets
// come from the environment only.
type fileConfig struct {
	OutputDir       *string `yaml:"outputDir"`
	Concurrency     *int    `yaml:"concurrency"`
	CheckInterval   *string `yaml:"checkInterval"`
	PruneInterval   *string `yaml:"pruneInterval"`
	RetentionDays   *int    `yaml:"retentionDays"`
	RetentionHours  *bool   `yaml:"retentionHours"`
	LookbackMinutes *int    `yaml:"lookbackMinutes"`
	Timezone        *string `yaml:"timezone"`
	ListenAddr      *string `yaml:"listenAddr"`
	LogLevel        *string `yaml:"logLevel"`
}

// Load builds the effective configuration with precedence ENV > file >
// defaults. An empty path skips the file layer; a missing file at an explicit
// path is an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = mergeFile(cfg, fileCfg)
	}
	return FromEnvOver(cfg), nil
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileConfig{}, fmt.Errorf("config file %s not found", path)
		}
		return fileConfig{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

func mergeFile(base Config, fc fileConfig) Config {
	cfg := base
	if fc.OutputDir != nil {
		cfg.OutputDir = *fc.OutputDir
	}
	if fc.Concurrency != nil {
		cfg.Concurrency = *fc.Concurrency
	}
	if fc.CheckInterval != nil {
		if d, err := time.ParseDuration(*fc.CheckInterval); err == nil {
			cfg.CheckInterval = d
		}
	}
	if fc.PruneInterval != nil {
		if d, err := time.ParseDuration(*fc.PruneInterval); err == nil {
			cfg.PruneInterval = d
		}
	}
	if fc.RetentionDays != nil {
		cfg.RetentionDays = *fc.RetentionDays
	}
	if fc.RetentionHours != nil {
		cfg.RetentionHours = *fc.RetentionHours
	}
	if fc.LookbackMinutes != nil {
		cfg.LookbackMinutes = *fc.LookbackMinutes
	}
	if fc.Timezone != nil {
		cfg.Timezone = *fc.Timezone
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	return cfg
}
