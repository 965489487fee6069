package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hunter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 200, cfg.Crawl.PageSize)
	assert.Equal(t, 5000, cfg.Crawl.MaxFollowers)
	assert.Equal(t, 5*time.Minute, cfg.Retry.TransientDelay)
	assert.Equal(t, 6*time.Minute, cfg.Retry.RateLimitDelay)
	assert.Equal(t, 15, cfg.Provider.RequestsPerWindow)
	assert.Equal(t, 15*time.Minute, cfg.Provider.Window)
	assert.Equal(t, "https://api.twitter.com", cfg.Provider.BaseURL)
	assert.Equal(t, 1.0, cfg.Export.MinWeight)
	assert.Zero(t, cfg.Automaton.MaxRounds)
	assert.Equal(t, "console", cfg.Logger.Format)
	require.NoError(t, cfg.Validate())

	cutoff, err := cfg.Crawl.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
crawl:
  page_size: 100
  created_after: "2015-06-01"
retry:
  rate_limit_delay: 15m
provider:
  bearer_token: from-file
logger:
  format: json
`)
	t.Setenv("HUNTER_CRAWL_MAX_FOLLOWERS", "1200")
	t.Setenv("HUNTER_PROVIDER_BEARER_TOKEN", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Crawl.PageSize)
	assert.Equal(t, 1200, cfg.Crawl.MaxFollowers)
	assert.Equal(t, 15*time.Minute, cfg.Retry.RateLimitDelay)
	assert.Equal(t, 5*time.Minute, cfg.Retry.TransientDelay)
	assert.Equal(t, "from-env", cfg.Provider.BearerToken)
	assert.Equal(t, "json", cfg.Logger.Format)

	cutoff, err := cfg.Crawl.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"page size too large", "crawl:\n  page_size: 500\n"},
		{"page size zero", "crawl:\n  page_size: 0\n"},
		{"negative ceiling", "crawl:\n  max_followers: -1\n"},
		{"bad cutoff", "crawl:\n  created_after: \"someday\"\n"},
		{"negative delay", "retry:\n  transient_delay: -1s\n"},
		{"negative rounds", "automaton:\n  max_rounds: -2\n"},
		{"bad format", "logger:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestValidateProvider(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Error(t, cfg.ValidateProvider())

	cfg.Provider.ConsumerKey = "key"
	assert.Error(t, cfg.ValidateProvider(), "secret missing")

	cfg.Provider.ConsumerSecret = "secret"
	assert.NoError(t, cfg.ValidateProvider())

	cfg = NewDefaultConfig()
	cfg.Provider.BearerToken = "token"
	assert.NoError(t, cfg.ValidateProvider())
}
