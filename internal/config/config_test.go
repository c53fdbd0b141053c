package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/portfolio-search/internal/content"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, "content", cfg.ContentDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 256, cfg.CacheCapacity)
	assert.Equal(t, 5*time.Minute, cfg.ContentTTL)
	assert.Equal(t, 5*time.Minute, cfg.IndexTTL)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 300*time.Millisecond, cfg.MinInterval)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, content.PolicyFailFast, cfg.FailPolicy)
	assert.Empty(t, cfg.Feeds)

	agg := cfg.AggregatorConfig()
	assert.Equal(t, 10*time.Second, agg.SourceTimeout)
	assert.Equal(t, 3, agg.Retry.MaxAttempts)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	t.Setenv("PORTFOLIO_FEED_URLS", "Medium=https://medium.com/feed/@jane, https://dev.to/feed/jane,,")
	t.Setenv("PORTFOLIO_FEATURED", "https://medium.com/p/1 , payments")
	t.Setenv("PORTFOLIO_FAIL_POLICY", "partial")
	t.Setenv("PORTFOLIO_CACHE_CAPACITY", "1")
	t.Setenv("PORTFOLIO_RETRY_ATTEMPTS", "50")
	t.Setenv("PORTFOLIO_DEBOUNCE", "-1s")
	t.Setenv("PORTFOLIO_RATE_BURST", "0")
	t.Setenv("PORTFOLIO_INDEX_TTL", "90s")

	cfg, err := Load(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, []Feed{
		{Platform: "Medium", URL: "https://medium.com/feed/@jane"},
		{Platform: "", URL: "https://dev.to/feed/jane"},
	}, cfg.Feeds)
	assert.Equal(t, []string{"https://medium.com/p/1", "payments"}, cfg.Featured)
	assert.Equal(t, content.PolicyPartial, cfg.FailPolicy)
	assert.Equal(t, 16, cfg.CacheCapacity)
	assert.Equal(t, 10, cfg.RetryAttempts)
	assert.Equal(t, time.Duration(0), cfg.Debounce)
	assert.Equal(t, 1, cfg.RateBurst)
	assert.Equal(t, 90*time.Second, cfg.IndexTTL)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"policy", "PORTFOLIO_FAIL_POLICY", "sometimes"},
		{"feed url", "PORTFOLIO_FEED_URLS", "Medium=ftp://example.com"},
		{"log level", "LOG_LEVEL", "loud"},
		{"rate limit", "PORTFOLIO_RATE_LIMIT", "0"},
		{"duration", "PORTFOLIO_CONTENT_TTL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(noEnvFile(t))
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresASource(t *testing.T) {
	t.Setenv("PORTFOLIO_CONTENT_DIR", "")
	_, err := Load(noEnvFile(t))
	assert.Error(t, err)

	t.Setenv("PORTFOLIO_DB_PATH", "portfolio.db")
	_, err = Load(noEnvFile(t))
	assert.NoError(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	_, set := os.LookupEnv("PORTFOLIO_SESSION_IDLE_TTL")
	if set {
		t.Skip("PORTFOLIO_SESSION_IDLE_TTL set in the environment")
	}
	t.Cleanup(func() { os.Unsetenv("PORTFOLIO_SESSION_IDLE_TTL") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORTFOLIO_SESSION_IDLE_TTL=45m\n"), 0o600))

	cfg, err := Load(noEnvFile(t), path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.SessionIdleTTL)
}
