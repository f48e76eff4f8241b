// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads authcore settings from defaults, a YAML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/authcore/internal/auth"
	"github.com/holomush/authcore/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AUTHCORE_"

// Environment names.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is the complete service configuration.
type Config struct {
	Env       string          `koanf:"env"`
	HTTP      HTTPConfig      `koanf:"http"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Token     TokenConfig     `koanf:"token"`
	Cookie    CookieConfig    `koanf:"cookie"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the observability listener. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures PostgreSQL access.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	ConnectAttempts uint64 `koanf:"connect_attempts"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// TokenConfig holds token secrets and lifetimes. None has a default.
type TokenConfig struct {
	AccessTTL     Duration `koanf:"access_ttl"`
	RefreshTTL    Duration `koanf:"refresh_ttl"`
	AccessSecret  string   `koanf:"access_secret"`
	RefreshSecret string   `koanf:"refresh_secret"`
}

// CookieConfig configures the refresh cookie.
type CookieConfig struct {
	Secure bool `koanf:"secure"`
}

// RateLimitConfig bounds unauthenticated auth requests per client IP.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Default returns the configuration used for unset keys.
func Default() Config {
	return Config{
		Env:      EnvProduction,
		HTTP:     HTTPConfig{Addr: ":8080"},
		Metrics:  MetricsConfig{Addr: "127.0.0.1:9100"},
		Database: DatabaseConfig{ConnectAttempts: 5},
		Log:      LogConfig{Format: "json", Level: "info"},
		Cookie:   CookieConfig{Secure: true},
		RateLimit: RateLimitConfig{
			RPS:   1,
			Burst: 5,
		},
	}
}

// LoadOptions selects the sources read by Load.
type LoadOptions struct {
	// File is an optional YAML file. Empty skips it.
	File string
	// Flags are applied last. Only flags the user set override other
	// sources. Flag names use dashes for dots: --http-addr sets http.addr.
	Flags *pflag.FlagSet
	// DatabaseOnly limits validation to the environment, logging and
	// database keys, for commands that never touch tokens or HTTP.
	DatabaseOnly bool
}

// Load reads configuration from all sources and validates it.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if opts.File != "" {
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, flagKey), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if !k.Exists("cookie.secure") {
		cfg.Cookie.Secure = cfg.Env != EnvDevelopment
	}

	validate := cfg.Validate
	if opts.DatabaseOnly {
		validate = cfg.validateBase
	}
	if err := validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps AUTHCORE_TOKEN_ACCESS_TTL to token.access_ttl. Only the
// first underscore separates section from key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// flagKey maps --database-url to database.url and skips flags that do not
// name a config key.
func flagKey(f *pflag.Flag) (string, any) {
	if _, ok := f.Annotations[configKeyAnnotation]; !ok {
		return "", nil
	}
	return strings.Replace(f.Name, "-", ".", 1), f.Value.String()
}

const configKeyAnnotation = "authcore_config_key"

// BindFlags registers the config override flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	def := Default()
	add := func(name, value, usage string) {
		fs.String(name, value, usage)
		_ = fs.SetAnnotation(name, configKeyAnnotation, []string{"true"}) //nolint:errcheck // flag was just added
	}
	add("env", def.Env, "environment: development, production or test")
	add("http-addr", def.HTTP.Addr, "API listen address")
	add("metrics-addr", def.Metrics.Addr, "metrics and health listen address (empty disables)")
	add("database-url", "", "PostgreSQL connection URL")
	add("log-format", def.Log.Format, "log format: json or text")
	add("log-level", def.Log.Level, "log level: debug, info, warn or error")
}

func invalid(key, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// validateBase checks the keys every command needs.
func (c *Config) validateBase() error {
	if !slices.Contains([]string{EnvDevelopment, EnvProduction, EnvTest}, c.Env) {
		return invalid("env", "unknown environment %q", c.Env)
	}
	if c.Database.URL == "" {
		return invalid("database.url", "database.url is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown log level %q", c.Log.Level)
	}
	return nil
}

// Validate checks every setting. All failures carry CONFIG_INVALID.
func (c *Config) Validate() error {
	if err := c.validateBase(); err != nil {
		return err
	}
	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.Token.AccessTTL <= 0 {
		return invalid("token.access_ttl", "token.access_ttl is required")
	}
	if c.Token.RefreshTTL <= 0 {
		return invalid("token.refresh_ttl", "token.refresh_ttl is required")
	}
	if c.Token.AccessSecret == "" {
		return invalid("token.access_secret", "token.access_secret is required")
	}
	if c.Token.RefreshSecret == "" {
		return invalid("token.refresh_secret", "token.refresh_secret is required")
	}
	if err := c.AuthTokenConfig().Validate(); err != nil {
		return invalid("token", "%s", err.Error())
	}
	if c.RateLimit.RPS <= 0 {
		return invalid("ratelimit.rps", "ratelimit.rps must be positive")
	}
	if c.RateLimit.Burst < 1 {
		return invalid("ratelimit.burst", "ratelimit.burst must be at least 1")
	}
	return nil
}

// AuthTokenConfig converts the token settings for auth.NewTokenService.
func (c *Config) AuthTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  []byte(c.Token.AccessSecret),
		RefreshSecret: []byte(c.Token.RefreshSecret),
		AccessTTL:     c.Token.AccessTTL.Std(),
		RefreshTTL:    c.Token.RefreshTTL.Std(),
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// FileFromEnv returns the config file named by AUTHCORE_CONFIG, if any.
func FileFromEnv() string {
	return os.Getenv(EnvPrefix + "CONFIG")
}
