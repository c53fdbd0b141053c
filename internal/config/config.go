// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	env "github.com/netflix/go-env"

	"github.com/dshills/portfolio-search/internal/content"
)

// Feed is one RSS/Atom writing feed
type Feed struct {
	Platform string
	URL      string
}

// Config holds every tunable of the service
type Config struct {
	ContentDir  string `env:"PORTFOLIO_CONTENT_DIR,default=content"`
	DBPath      string `env:"PORTFOLIO_DB_PATH"`
	FeedURLsStr string `env:"PORTFOLIO_FEED_URLS"`
	FeaturedStr string `env:"PORTFOLIO_FEATURED"` // comma-separated feed links or slugs to mark featured
	Feeds       []Feed
	Featured    []string

	HTTPAddr string `env:"PORTFOLIO_HTTP_ADDR,default=:8080"`

	CacheCapacity int           `env:"PORTFOLIO_CACHE_CAPACITY,default=256"`
	ContentTTL    time.Duration `env:"PORTFOLIO_CONTENT_TTL,default=5m"`
	IndexTTL      time.Duration `env:"PORTFOLIO_INDEX_TTL,default=5m"`
	SoftStale     time.Duration `env:"PORTFOLIO_SOFT_STALE,default=0s"`

	SourceTimeout time.Duration `env:"PORTFOLIO_SOURCE_TIMEOUT,default=10s"`
	RetryAttempts int           `env:"PORTFOLIO_RETRY_ATTEMPTS,default=3"`
	FailPolicyStr string        `env:"PORTFOLIO_FAIL_POLICY,default=fail_fast"`
	FailPolicy    content.Policy

	Debounce       time.Duration `env:"PORTFOLIO_DEBOUNCE,default=300ms"`
	MinInterval    time.Duration `env:"PORTFOLIO_MIN_INTERVAL,default=300ms"`
	SessionIdleTTL time.Duration `env:"PORTFOLIO_SESSION_IDLE_TTL,default=30m"`

	RateLimit float64 `env:"PORTFOLIO_RATE_LIMIT,default=10"`
	RateBurst int     `env:"PORTFOLIO_RATE_BURST,default=20"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads an optional .env file (the first existing one of files, or
// ".env" when none are given), then the environment, then validates.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
		break
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	feeds, err := parseFeeds(cfg.FeedURLsStr)
	if err != nil {
		return nil, err
	}
	cfg.Feeds = feeds
	cfg.Featured = splitList(cfg.FeaturedStr)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// parseFeeds parses comma-separated "Platform=URL" pairs. A bare URL has no
// platform and takes the feed's own title.
func parseFeeds(s string) ([]Feed, error) {
	var feeds []Feed
	for _, item := range splitList(s) {
		platform, url, found := strings.Cut(item, "=")
		if !found {
			platform, url = "", item
		}
		platform, url = strings.TrimSpace(platform), strings.TrimSpace(url)
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return nil, fmt.Errorf("PORTFOLIO_FEED_URLS: %q is not an http(s) URL", url)
		}
		feeds = append(feeds, Feed{Platform: platform, URL: url})
	}
	return feeds, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// validateConfig validates configuration values and adjusts them to safe ranges
func validateConfig(cfg *Config) error {
	policy, err := content.ParsePolicy(cfg.FailPolicyStr)
	if err != nil {
		return fmt.Errorf("PORTFOLIO_FAIL_POLICY: %w", err)
	}
	cfg.FailPolicy = policy

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if cfg.ContentDir == "" && cfg.DBPath == "" && len(cfg.Feeds) == 0 {
		return fmt.Errorf("at least one of PORTFOLIO_CONTENT_DIR, PORTFOLIO_DB_PATH or PORTFOLIO_FEED_URLS is required")
	}

	if cfg.CacheCapacity < 16 {
		cfg.CacheCapacity = 16
	}
	if cfg.CacheCapacity > 100000 {
		cfg.CacheCapacity = 100000
	}

	if cfg.ContentTTL <= 0 {
		cfg.ContentTTL = 5 * time.Minute
	}
	if cfg.IndexTTL <= 0 {
		cfg.IndexTTL = 5 * time.Minute
	}
	if cfg.SoftStale < 0 {
		cfg.SoftStale = 0
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 10 * time.Second
	}

	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryAttempts > 10 {
		cfg.RetryAttempts = 10
	}

	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = 30 * time.Minute
	}

	if cfg.RateLimit <= 0 {
		return fmt.Errorf("PORTFOLIO_RATE_LIMIT must be greater than 0")
	}
	if cfg.RateBurst < 1 {
		cfg.RateBurst = 1
	}

	return nil
}

// AggregatorConfig maps the settings onto content.Config
func (c *Config) AggregatorConfig() content.Config {
	cfg := content.DefaultConfig()
	cfg.SourceTimeout = c.SourceTimeout
	cfg.Retry.MaxAttempts = c.RetryAttempts
	cfg.Policy = c.FailPolicy
	cfg.ContentTTL = c.ContentTTL
	return cfg
}
