/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the settings that select and configure the document
// store, blob store and identity provider behind the facade. Settings come from
// a YAML file, an optional environment overlay file, a .env file and the
// process environment, in increasing order of precedence.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/estatestore/logging"
)

const (
	// BaseConfigFile is read when no path is given.
	BaseConfigFile = "config.yaml"

	// OverlayConfigPattern names the environment overlay next to the base file.
	OverlayConfigPattern = "config.%s.yaml"

	// EnvFile is loaded into the process environment when present.
	EnvFile = ".env"

	// EnvEstateEnv selects the overlay.
	EnvEstateEnv = "ESTATE_ENV"

	EnvLogLevel  = "ESTATE_LOG_LEVEL"
	EnvLogFormat = "ESTATE_LOG_FORMAT"
)

// Config is the root configuration.
type Config struct {
	Store   StoreConfig    `yaml:"store"`
	Blobs   BlobsConfig    `yaml:"blobs"`
	Auth    AuthConfig     `yaml:"auth"`
	Logging logging.Config `yaml:"logging"`
}

// Load reads path, or BaseConfigFile when path is empty, and applies the overlay
// selected by ESTATE_ENV. A missing default file yields an empty configuration;
// a missing explicit path is an error. Variables from a .env file next to the
// configuration are added to the environment without replacing existing ones.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = BaseConfigFile
	}
	dir := filepath.Dir(path)

	if err := godotenv.Load(filepath.Join(dir, EnvFile)); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", EnvFile, err)
	}

	cfg, err := load(path)
	switch {
	case err == nil:
	case !explicit && stderrors.Is(err, fs.ErrNotExist):
		cfg = &Config{}
	default:
		return nil, err
	}

	if env := os.Getenv(EnvEstateEnv); env != "" {
		overlayPath := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(overlayPath); err == nil {
			overlay, err := load(overlayPath)
			if err != nil {
				return nil, fmt.Errorf("load overlay %s: %w", overlayPath, err)
			}
			cfg.Merge(overlay)
		}
	}
	return cfg, nil
}

// Parse decodes a YAML document without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Finalize applies defaults and environment overrides to every section, then
// validates it.
func (c *Config) Finalize() error {
	if err := c.Store.Finalize(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Blobs.Finalize(); err != nil {
		return fmt.Errorf("blobs: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Logging.Finalize(&logging.Env{Level: EnvLogLevel, Format: EnvLogFormat}); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies the non-zero settings of overlay.
func (c *Config) Merge(overlay *Config) {
	c.Store.Merge(&overlay.Store)
	c.Blobs.Merge(&overlay.Blobs)
	c.Auth.Merge(&overlay.Auth)
	c.Logging.Merge(&overlay.Logging)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envString(dst *string, name string) {
	setString(dst, os.Getenv(name))
}
