package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET", "BADGE_CATALOG_URL",
		"BADGE_POLL_DISABLED", "BADGE_SCRAPE_TIMEOUT_SECONDS", "DATA_DIR", "HTTP_ADDR"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogURL != "https://www.streamdatabase.com/twitch/global-badges" {
		t.Errorf("CatalogURL = %q", cfg.CatalogURL)
	}
	if cfg.ScrapeTimeout != 15*time.Second {
		t.Errorf("ScrapeTimeout = %v", cfg.ScrapeTimeout)
	}
	if cfg.DataDir != "data" || cfg.HTTPAddr != ":8080" {
		t.Errorf("DataDir = %q, HTTPAddr = %q", cfg.DataDir, cfg.HTTPAddr)
	}
	if cfg.PollDisabled {
		t.Error("PollDisabled defaulted to true")
	}
	if err := cfg.ValidateTwitchReady(); err == nil {
		t.Error("ValidateTwitchReady passed without credentials")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TWITCH_CLIENT_ID", "cid")
	t.Setenv("TWITCH_CLIENT_SECRET", "csecret")
	t.Setenv("BADGE_CATALOG_URL", "http://localhost:9999/catalog")
	t.Setenv("BADGE_POLL_DISABLED", "1")
	t.Setenv("BADGE_SCRAPE_TIMEOUT_SECONDS", "30")
	t.Setenv("DATA_DIR", "/var/lib/badges")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogURL != "http://localhost:9999/catalog" || !cfg.PollDisabled {
		t.Errorf("catalog settings = %q disabled=%v", cfg.CatalogURL, cfg.PollDisabled)
	}
	if cfg.ScrapeTimeout != 30*time.Second {
		t.Errorf("ScrapeTimeout = %v", cfg.ScrapeTimeout)
	}
	if err := cfg.ValidateTwitchReady(); err != nil {
		t.Errorf("ValidateTwitchReady: %v", err)
	}
}

func TestLoad_BadTimeout(t *testing.T) {
	t.Setenv("BADGE_SCRAPE_TIMEOUT_SECONDS", "zero")
	if _, err := Load(); err == nil {
		t.Error("Load accepted a non-numeric timeout")
	}
	t.Setenv("BADGE_SCRAPE_TIMEOUT_SECONDS", "-5")
	if _, err := Load(); err == nil {
		t.Error("Load accepted a negative timeout")
	}
}
