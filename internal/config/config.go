// Package config loads CLI configuration from an HCL file and the
// environment.
//
// Example configuration (HCL):
//
//	consumer_key    = "..."
//	consumer_secret = "..."
//	api_version     = "1.1"
//	secure          = true
//	auth_headers    = false
//	timeout         = "30s"
//	max_retries     = 2
//	retry_delay     = "500ms"
//	log_level       = "debug"
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/contextio/pkg/contextio"
)

// Environment variables that override file settings.
const (
	EnvConsumerKey    = "CONTEXTIO_CONSUMER_KEY"
	EnvConsumerSecret = "CONTEXTIO_CONSUMER_SECRET"
	EnvAPIVersion     = "CONTEXTIO_API_VERSION"
	EnvSecure         = "CONTEXTIO_SECURE"
	EnvLogLevel       = "CONTEXTIO_LOG_LEVEL"
)

// Config is the CLI configuration file.
type Config struct {
	ConsumerKey    string `hcl:"consumer_key,optional"`
	ConsumerSecret string `hcl:"consumer_secret,optional"`
	APIVersion     string `hcl:"api_version,optional"`
	Secure         *bool  `hcl:"secure,optional"`
	AuthHeaders    bool   `hcl:"auth_headers,optional"`
	SaveHeaders    bool   `hcl:"save_headers,optional"`
	Endpoint       string `hcl:"endpoint,optional"`

	// Timeout and RetryDelay are Go duration strings, e.g. "30s".
	Timeout    string `hcl:"timeout,optional"`
	MaxRetries int    `hcl:"max_retries,optional"`
	RetryDelay string `hcl:"retry_delay,optional"`

	LogLevel string `hcl:"log_level,optional"`
}

// Load reads the configuration file at path from fs and applies environment
// overrides. An empty path skips the file. The file must have an .hcl or
// .json extension.
func Load(fs afero.Fs, path string) (*Config, error) {
	return load(fs, path, os.LookupEnv)
}

func load(fs afero.Fs, path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	var cfg Config

	if path != "" {
		src, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := hclsimple.Decode(path, src, nil, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	if val, ok := lookupEnv(EnvConsumerKey); ok && val != "" {
		c.ConsumerKey = val
	}
	if val, ok := lookupEnv(EnvConsumerSecret); ok && val != "" {
		c.ConsumerSecret = val
	}
	if val, ok := lookupEnv(EnvAPIVersion); ok && val != "" {
		c.APIVersion = val
	}
	if val, ok := lookupEnv(EnvLogLevel); ok && val != "" {
		c.LogLevel = val
	}
	if val, ok := lookupEnv(EnvSecure); ok && val != "" {
		secure, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSecure, err)
		}
		c.Secure = &secure
	}
	return nil
}

// ClientConfig converts c into a client configuration. All conversion errors
// are reported together.
func (c *Config) ClientConfig(logger hclog.Logger) (*contextio.Config, error) {
	var result *multierror.Error

	cfg := &contextio.Config{
		ConsumerKey:    c.ConsumerKey,
		ConsumerSecret: c.ConsumerSecret,
		APIVersion:     c.APIVersion,
		Secure:         c.Secure,
		AuthHeaders:    c.AuthHeaders,
		SaveHeaders:    c.SaveHeaders,
		Endpoint:       c.Endpoint,
		MaxRetries:     c.MaxRetries,
		Logger:         logger,
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("timeout: %w", err))
		}
		cfg.Timeout = d
	}

	if c.RetryDelay != "" {
		d, err := time.ParseDuration(c.RetryDelay)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("retry_delay: %w", err))
		}
		cfg.RetryDelay = d
	}

	if c.LogLevel != "" && hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Level returns the configured log level, or fallback when none is set.
func (c *Config) Level(fallback hclog.Level) hclog.Level {
	if c.LogLevel == "" {
		return fallback
	}
	if level := hclog.LevelFromString(c.LogLevel); level != hclog.NoLevel {
		return level
	}
	return fallback
}
