// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/salary-intel/internal/cache"
	"github.com/jonathan/salary-intel/internal/fetchq"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment
// variables, or CLI flags.
type Config struct {
	// Credentials
	GeminiAPIKey   string `json:"gemini_api_key,omitempty"`   // Gemini API key
	SearchAPIKey   string `json:"search_api_key,omitempty"`   // Google Custom Search API key
	SearchEngineID string `json:"search_engine_id,omitempty"` // Google Custom Search engine ID (cx)
	DatabaseURL    string `json:"database_url,omitempty"`     // PostgreSQL connection URL

	// Tuning
	MinFetchDelaySeconds int    `json:"min_fetch_delay_seconds,omitempty"` // Politeness delay between outbound page fetches
	CacheTTLDays         int    `json:"cache_ttl_days,omitempty"`          // Analysis cache lifetime
	UserAgent            string `json:"user_agent,omitempty"`              // Override the default scraper user agent

	// Behavior
	UseBrowser bool `json:"use_browser,omitempty"` // Render JS-heavy sources with a headless browser
	Verbose    bool `json:"verbose,omitempty"`     // Print detailed progress information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills credential fields that are still empty from the process
// environment. File and flag values always win over the environment.
func (c *Config) FromEnv() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.SearchAPIKey == "" {
		c.SearchAPIKey = os.Getenv("GOOGLE_SEARCH_API_KEY")
	}
	if c.SearchEngineID == "" {
		c.SearchEngineID = os.Getenv("GOOGLE_SEARCH_CX")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks that the configuration has valid values.
// Required credentials are checked by the commands that need them, after
// merging flags, file, and environment.
func (c *Config) Validate() error {
	if c.MinFetchDelaySeconds < 0 {
		return fmt.Errorf("config error: 'min_fetch_delay_seconds' must be non-negative")
	}
	if c.CacheTTLDays < 0 {
		return fmt.Errorf("config error: 'cache_ttl_days' must be non-negative")
	}
	return nil
}

// FetchDelay returns the configured politeness delay, or the queue default
// when unset.
func (c *Config) FetchDelay() time.Duration {
	if c.MinFetchDelaySeconds > 0 {
		return time.Duration(c.MinFetchDelaySeconds) * time.Second
	}
	return fetchq.DefaultMinDelay
}

// CacheTTL returns the configured analysis cache lifetime, or the cache
// default when unset.
func (c *Config) CacheTTL() time.Duration {
	if c.CacheTTLDays > 0 {
		return time.Duration(c.CacheTTLDays) * 24 * time.Hour
	}
	return cache.DefaultTTL
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.SearchAPIKey == "" {
		result.SearchAPIKey = defaults.SearchAPIKey
	}
	if result.SearchEngineID == "" {
		result.SearchEngineID = defaults.SearchEngineID
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.MinFetchDelaySeconds == 0 {
		result.MinFetchDelaySeconds = defaults.MinFetchDelaySeconds
	}
	if result.CacheTTLDays == 0 {
		result.CacheTTLDays = defaults.CacheTTLDays
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
