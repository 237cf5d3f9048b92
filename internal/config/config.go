// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads service configuration from a YAML file,
// environment variables, and command-line flags, in that order of
// precedence (later sources override earlier ones).
package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable overrides.
// A double underscore separates nesting levels, so
// GATEHOUSE_AUTH__COOKIE_NAME overrides auth.cookie_name.
const EnvPrefix = "GATEHOUSE_"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	// Addr is the listen address for the API server.
	Addr string `koanf:"addr"`
}

type MetricsConfig struct {
	// Addr is the listen address for the observability server.
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	// URL is the postgres connection string. When empty the service
	// runs with the in-memory user store.
	URL string `koanf:"url"`
}

type AuthConfig struct {
	// Scheme selects how requests authenticate: none, basic, or session.
	Scheme string `koanf:"scheme"`

	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie_name"`

	// ExcludedPaths are glob patterns for paths that skip authentication.
	ExcludedPaths []string `koanf:"excluded_paths"`
}

type LogConfig struct {
	// Format is either "text" or "json".
	Format string `koanf:"format"`

	// RedactFields are attribute keys masked in log output, in
	// addition to the built-in sensitive fields.
	RedactFields []string `koanf:"redact_fields"`
}

// Default returns the configuration used when no file, environment
// variable, or flag overrides a value.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Metrics: MetricsConfig{Addr: ":9090"},
		Auth: AuthConfig{
			Scheme:     "session",
			CookieName: "_gatehouse_session",
			// Registration, login, and the public status endpoint must
			// stay reachable without credentials.
			ExcludedPaths: []string{"/api/v1/status", "/api/v1/users", "/api/v1/sessions"},
		},
		Log: LogConfig{Format: "text"},
	}
}

// Load builds a Config from defaults, an optional YAML file,
// GATEHOUSE_-prefixed environment variables, and flags. path may be
// empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	// Defaults go in first so later layers, including unset flags,
	// never erase them.
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return cfg, oops.Code("CONFIG_DEFAULTS_INVALID").
			Wrapf(err, "failed to load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, oops.Code("CONFIG_FILE_MISSING").
				With("path", path).
				Wrapf(err, "config file not found")
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_FILE_INVALID").
				With("path", path).
				Wrapf(err, "failed to parse config file")
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			key = strings.ToLower(key)
			key = strings.ReplaceAll(key, "__", ".")
			return key, value
		},
	}), nil); err != nil {
		return cfg, oops.Code("CONFIG_ENV_INVALID").
			Wrapf(err, "failed to load environment overrides")
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, oops.Code("CONFIG_FLAGS_INVALID").
				Wrapf(err, "failed to load flag overrides")
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_UNMARSHAL").
			Wrapf(err, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that koanf cannot express.
func (c Config) Validate() error {
	switch c.Auth.Scheme {
	case "none", "basic", "session":
	default:
		return oops.Code("CONFIG_INVALID").
			With("scheme", c.Auth.Scheme).
			Errorf("auth scheme must be none, basic, or session")
	}
	if c.Auth.Scheme == "session" && c.Auth.CookieName == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("auth.cookie_name is required for the session scheme")
	}
	if c.Server.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("server.addr must not be empty")
	}
	return nil
}
