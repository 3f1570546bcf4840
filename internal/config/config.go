// Copyright (c) 2026 the acmetool-hook-dns authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the hook configuration: defaults, then an
// optional YAML file, then ACME_HOOK_* environment overrides.  The
// result is passed explicitly to the backend, resolver, and poller
// constructors; nothing in the core reads the environment on its own.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/acme/dns-hook.yaml"

type Config struct {
	Backend struct {
		// Type names a registered backend: tinydns or rfc2136.
		Type     string            `yaml:"type"`
		Settings map[string]string `yaml:"settings"`
	} `yaml:"backend"`

	Propagation struct {
		Timeout  time.Duration `yaml:"timeout"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"propagation"`

	Resolver struct {
		// Nameserver overrides the system recursor used for zone and
		// NS discovery.
		Nameserver string `yaml:"nameserver"`
	} `yaml:"resolver"`

	Log struct {
		Verbose bool `yaml:"verbose"`
	} `yaml:"log"`
}

func Default() Config {
	var cfg Config
	cfg.Backend.Type = "tinydns"
	cfg.Propagation.Timeout = 60 * time.Second
	cfg.Propagation.Interval = 2 * time.Second
	return cfg
}

// Load reads the configuration from path, or from DefaultPath if path
// is empty.  A missing file is not an error: defaults and environment
// overrides still apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	// Expand ${ENV_VAR} references in backend settings, so secrets can
	// stay out of the file.
	for k, v := range cfg.Backend.Settings {
		cfg.Backend.Settings[k] = os.ExpandEnv(v)
	}

	if cfg.Backend.Type == "" {
		return cfg, fmt.Errorf("config: missing backend type")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ACME_HOOK_BACKEND"); v != "" {
		cfg.Backend.Type = v
	}
	if v := os.Getenv("ACME_HOOK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Propagation.Timeout = d
		}
	}
	if v := os.Getenv("ACME_HOOK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Propagation.Interval = d
		}
	}
	if v := os.Getenv("ACME_HOOK_NAMESERVER"); v != "" {
		cfg.Resolver.Nameserver = v
	}
	if v := os.Getenv("ACME_HOOK_VERBOSE"); v != "" {
		cfg.Log.Verbose = parseBool(v, cfg.Log.Verbose)
	}
}

func parseBool(input string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
