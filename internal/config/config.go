// Package config loads application configuration from the environment with
// optional .env file support.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults for optional settings. These are caller-supplied configuration,
// not constants baked into the filter engine.
const (
	DefaultMaxItems   = 25
	DefaultKeyword    = "failed"
	DefaultPageSize   = 25
	DefaultMaxRetries = 5
)

// Config holds all environment-driven settings for the mail reader.
type Config struct {
	// Credentials. Either TenantID+ClientID (device-code flow) or
	// AccessToken (direct bypass) must be present.
	TenantID    string
	ClientID    string
	AccessToken string

	// Default search criteria, overridable per invocation.
	SenderFilter    string
	Keyword         string
	MaxItems        int
	SearchInSubject bool
	SearchInBody    bool
	CaseSensitive   bool
	UseRegex        bool

	// Retrieval tuning.
	PageSize   int
	MaxRetries int

	LogLevel slog.Level
}

// Load reads configuration from the environment, loading envFile first when
// it names an existing file. An empty envFile falls back to ".env" in the
// working directory if present.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// Best effort; a missing .env is not an error.
		_ = godotenv.Load()
	}

	cfg := &Config{
		TenantID:     os.Getenv("TENANT_ID"),
		ClientID:     os.Getenv("CLIENT_ID"),
		AccessToken:  os.Getenv("ACCESS_TOKEN"),
		SenderFilter: os.Getenv("SENDER_FILTER"),
		Keyword:      getEnvDefault("KEYWORD", DefaultKeyword),
	}

	var err error
	if cfg.MaxItems, err = getEnvInt("MAX_ITEMS", DefaultMaxItems); err != nil {
		return nil, err
	}
	if cfg.PageSize, err = getEnvInt("PAGE_SIZE", DefaultPageSize); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getEnvInt("MAX_RETRIES", DefaultMaxRetries); err != nil {
		return nil, err
	}
	if cfg.SearchInSubject, err = getEnvBool("SEARCH_IN_SUBJECT", true); err != nil {
		return nil, err
	}
	if cfg.SearchInBody, err = getEnvBool("SEARCH_IN_BODY", true); err != nil {
		return nil, err
	}
	if cfg.CaseSensitive, err = getEnvBool("CASE_SENSITIVE", false); err != nil {
		return nil, err
	}
	if cfg.UseRegex, err = getEnvBool("USE_REGEX", false); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.AccessToken == "" && (c.TenantID == "" || c.ClientID == "") {
		return fmt.Errorf("missing credentials: set TENANT_ID and CLIENT_ID for device-code authentication, or ACCESS_TOKEN for direct access")
	}
	if c.MaxItems < 1 || c.MaxItems > 1000 {
		return fmt.Errorf("MAX_ITEMS must be between 1 and 1000, got %d", c.MaxItems)
	}
	if c.PageSize < 1 || c.PageSize > 999 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 999, got %d", c.PageSize)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.MaxRetries)
	}
	if !c.SearchInSubject && !c.SearchInBody {
		return fmt.Errorf("at least one of SEARCH_IN_SUBJECT and SEARCH_IN_BODY must be enabled")
	}
	return nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
}
