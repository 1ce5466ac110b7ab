// Package config resolves where the deployment service lives and how cpdash
// authenticates against it.
//
// Values are layered: defaults, then the JSON config file, then a .env file,
// then process environment. Command-line flags are applied last by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvBaseURL    = "CPDASH_BASE_URL"
	EnvAppToken   = "CPDASH_APP_TOKEN"
	EnvTimeout    = "CPDASH_TIMEOUT"
	EnvDBPath     = "CPDASH_DB"
	EnvConfigPath = "CPDASH_CONFIG"

	defaultTimeout = 15 * time.Second
	configFileName = "config.json"
)

// Config holds the resolved settings
type Config struct {
	BaseURL  string
	AppToken string
	Timeout  time.Duration
	DBPath   string

	// ConfigFileUsed is the JSON file that was read, empty if none
	ConfigFileUsed string
}

// fileConfig mirrors the dashboard's config.json
type fileConfig struct {
	BaseURL  string `json:"BASE_URL"`
	AppToken string `json:"APP_TOKEN"`
	Timeout  string `json:"TIMEOUT,omitempty"`
	DBPath   string `json:"DB_PATH,omitempty"`
}

// Options points Load at alternative files
type Options struct {
	// ConfigPath overrides the JSON config file location
	ConfigPath string
	// EnvFile is loaded with godotenv when it exists. Variables already set
	// in the environment win.
	EnvFile string
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Timeout: defaultTimeout,
	}
}

// Load resolves configuration from files and the environment
func Load(opts Options) (*Config, error) {
	cfg := Default()

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	if err := loadConfigFile(cfg, configPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) || opts.ConfigPath != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg.ConfigFileUsed = configPath
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfigPath prefers CPDASH_CONFIG, then $XDG_CONFIG_HOME/cpdash/config.json
func defaultConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, "cpdash", configFileName)
}

func loadConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.AppToken != "" {
		cfg.AppToken = fc.AppToken
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.Timeout != "" {
		d, err := parseTimeout(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid TIMEOUT in %s: %w", path, err)
		}
		cfg.Timeout = d
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvAppToken); v != "" {
		cfg.AppToken = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// parseTimeout accepts a Go duration ("30s") or a bare number of seconds
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks that the service can be reached with these settings
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL not configured (set %s, BASE_URL in config.json, or --base-url)", EnvBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
