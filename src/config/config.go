// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config resolves the upload tool's settings from an optional YAML
// file, environment variables, and command-line flags, in that order of
// precedence (flags win).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrIncomplete indicates that required settings are missing after all
// sources have been applied.
var ErrIncomplete = errors.New("config: incomplete settings")

// Settings holds every option the CLI accepts. Secrets (access key,
// trust-store password) are never read from the YAML file; they come from
// the environment or flags only.
type Settings struct {
	ServerURL          string `yaml:"server" env:"TEAMSCALE_SERVER_URL"`
	Project            string `yaml:"project" env:"TEAMSCALE_PROJECT"`
	User               string `yaml:"user" env:"TEAMSCALE_USER"`
	AccessKey          string `yaml:"-" env:"TEAMSCALE_ACCESS_KEY"`
	Format             string `yaml:"format" env:"TEAMSCALE_FORMAT"`
	Partition          string `yaml:"partition" env:"TEAMSCALE_PARTITION"`
	Message            string `yaml:"message" env:"TEAMSCALE_MESSAGE"`
	TimeoutSeconds     uint   `yaml:"timeout-seconds" env:"TEAMSCALE_TIMEOUT_SECONDS"`
	Insecure           bool   `yaml:"insecure" env:"TEAMSCALE_INSECURE"`
	TrustStorePath     string `yaml:"truststore" env:"TEAMSCALE_TRUSTSTORE"`
	TrustStorePassword string `yaml:"-" env:"TEAMSCALE_TRUSTSTORE_PASSWORD"`
}

// Default returns the settings baseline before any source is applied.
func Default() Settings {
	return Settings{
		TimeoutSeconds: 60,
	}
}

// LoadFile reads and parses a YAML settings file over the given baseline.
func LoadFile(base Settings, path string) (Settings, error) {
	cfg := base

	// Clean the path to prevent directory traversal through generated paths
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304 - config file path is chosen by the user
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays TEAMSCALE_* environment variables onto s. Variables
// that are not set leave the existing values untouched.
func (s *Settings) ApplyEnv() error {
	if err := env.Parse(s); err != nil {
		return fmt.Errorf("config: failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks that every required setting is present and consistent.
func (s *Settings) Validate() error {
	var missing []string
	if s.ServerURL == "" {
		missing = append(missing, "server URL")
	}
	if s.Project == "" {
		missing = append(missing, "project")
	}
	if s.User == "" {
		missing = append(missing, "user")
	}
	if s.AccessKey == "" {
		missing = append(missing, "access key")
	}
	if s.Format == "" {
		missing = append(missing, "report format")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrIncomplete, missing)
	}

	if s.TimeoutSeconds == 0 {
		return fmt.Errorf("%w: timeout must be a positive number of seconds", ErrIncomplete)
	}

	return nil
}
