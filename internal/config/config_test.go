package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TENANT_ID", "CLIENT_ID", "ACCESS_TOKEN", "SENDER_FILTER",
		"KEYWORD", "MAX_ITEMS", "PAGE_SIZE", "MAX_RETRIES",
		"SEARCH_IN_SUBJECT", "SEARCH_IN_BODY", "CASE_SENSITIVE",
		"USE_REGEX", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadRequiredVars(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_ID", "test-tenant-id")
	t.Setenv("CLIENT_ID", "test-client-id")
	t.Setenv("SENDER_FILTER", "test@example.com")
	t.Setenv("MAX_ITEMS", "50")
	t.Setenv("KEYWORD", "test-keyword")
	t.Setenv("SEARCH_IN_SUBJECT", "true")
	t.Setenv("SEARCH_IN_BODY", "true")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-tenant-id", cfg.TenantID)
	assert.Equal(t, "test-client-id", cfg.ClientID)
	assert.Equal(t, "test@example.com", cfg.SenderFilter)
	assert.Equal(t, 50, cfg.MaxItems)
	assert.Equal(t, "test-keyword", cfg.Keyword)
	assert.True(t, cfg.SearchInSubject)
	assert.True(t, cfg.SearchInBody)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadMissingCredentials(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing credentials")
}

func TestLoadAccessTokenBypass(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCESS_TOKEN", "pre-obtained-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "pre-obtained-token", cfg.AccessToken)
	assert.Empty(t, cfg.TenantID)
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_ID", "test-tenant-id")
	t.Setenv("CLIENT_ID", "test-client-id")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxItems, cfg.MaxItems)
	assert.Equal(t, DefaultKeyword, cfg.Keyword)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultMaxRetries, cfg.MaxRetries)
	assert.True(t, cfg.SearchInSubject)
	assert.True(t, cfg.SearchInBody)
	assert.False(t, cfg.CaseSensitive)
	assert.False(t, cfg.UseRegex)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadUseRegex(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_ID", "test-tenant-id")
	t.Setenv("CLIENT_ID", "test-client-id")
	t.Setenv("USE_REGEX", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.UseRegex)
}

func TestLoadInvalidInt(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_ID", "test-tenant-id")
	t.Setenv("CLIENT_ID", "test-client-id")
	t.Setenv("MAX_ITEMS", "not-an-integer")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ITEMS")
}

func TestLoadInvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_ID", "test-tenant-id")
	t.Setenv("CLIENT_ID", "test-client-id")
	t.Setenv("LOG_LEVEL", "loud")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestValidate(t *testing.T) {
	valid := Config{
		TenantID:        "test-tenant-id-12345",
		ClientID:        "test-client-id-12345",
		SenderFilter:    "test@example.com",
		MaxItems:        50,
		PageSize:        25,
		MaxRetries:      3,
		SearchInSubject: true,
		SearchInBody:    true,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty tenant id", func(c *Config) { c.TenantID = "" }, "missing credentials"},
		{"empty client id", func(c *Config) { c.ClientID = "" }, "missing credentials"},
		{"access token alone is enough", func(c *Config) {
			c.TenantID, c.ClientID = "", ""
			c.AccessToken = "token"
		}, ""},
		{"max items too small", func(c *Config) { c.MaxItems = 0 }, "MAX_ITEMS"},
		{"max items too large", func(c *Config) { c.MaxItems = 1001 }, "MAX_ITEMS"},
		{"page size too large", func(c *Config) { c.PageSize = 1000 }, "PAGE_SIZE"},
		{"retries too small", func(c *Config) { c.MaxRetries = 0 }, "MAX_RETRIES"},
		{"both search scopes disabled", func(c *Config) {
			c.SearchInSubject = false
			c.SearchInBody = false
		}, "at least one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
