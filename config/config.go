// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Twitch credentials are only required for the /api/badges and /api/emotes proxy routes;
// use ValidateTwitchReady when you need them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Twitch
	TwitchClientID     string
	TwitchClientSecret string

	// Badge catalog scraping
	CatalogURL    string
	PollDisabled  bool
	ScrapeTimeout time.Duration

	// Storage
	DataDir string

	// HTTP
	HTTPAddr string
}

// Load reads environment variables and applies defaults. It doesn't fail if Twitch creds
// are missing; the discovery poller runs without them. Use ValidateTwitchReady() when
// serving the proxy routes.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TwitchClientID = os.Getenv("TWITCH_CLIENT_ID")
	cfg.TwitchClientSecret = os.Getenv("TWITCH_CLIENT_SECRET")

	cfg.CatalogURL = os.Getenv("BADGE_CATALOG_URL")
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = "https://www.streamdatabase.com/twitch/global-badges"
	}
	cfg.PollDisabled = os.Getenv("BADGE_POLL_DISABLED") == "1"

	cfg.ScrapeTimeout = 15 * time.Second
	if v := os.Getenv("BADGE_SCRAPE_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BADGE_SCRAPE_TIMEOUT_SECONDS: %q", v)
		}
		cfg.ScrapeTimeout = time.Duration(n) * time.Second
	}

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	return cfg, nil
}

// ValidateTwitchReady checks required fields for calling the Helix API.
func (c *Config) ValidateTwitchReady() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	return nil
}
