// Package config loads the optional .portcheck.toml project configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/port-tools/portcheck/internal/errors"
)

const (
	// DefaultBaseURL is the Port API endpoint used when no config file overrides it.
	DefaultBaseURL = "https://api.getport.io/v1"

	// DefaultRequestTimeoutSeconds bounds every remote call.
	DefaultRequestTimeoutSeconds = 30

	// DefaultMaxRetries is the number of extra attempts for transient failures.
	DefaultMaxRetries = 2
)

// DefaultExcludeDirs are directory names skipped during default discovery.
// Repository configuration must not be treated as entity data.
func DefaultExcludeDirs() []string {
	return []string{".github"}
}

// Config holds the tunable, non-credential configuration for a run.
type Config struct {
	BaseURL               string   `toml:"base_url"`
	ExcludeDirs           []string `toml:"exclude_dirs"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	MaxRetries            int      `toml:"max_retries"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		BaseURL:               DefaultBaseURL,
		ExcludeDirs:           DefaultExcludeDirs(),
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		MaxRetries:            DefaultMaxRetries,
	}
}

// Load reads the config file at path when it exists, applying defaults for
// any omitted field. A missing file is not an error; a malformed or invalid
// one is a configuration error.
func Load(path string) (*Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: config file path cannot be empty", errors.ErrConfiguration)
	}

	cfg := Default()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: failed to stat config file (%s): %w", errors.ErrConfiguration, path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode config from file (%s): %w", errors.ErrConfiguration, path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid config (%s): %w", errors.ErrConfiguration, path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base_url cannot be empty")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be positive, got %d", c.RequestTimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries)
	}
	return nil
}
