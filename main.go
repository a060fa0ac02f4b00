// Command badgerelay is the entrypoint for the badge/emote proxy API and the
// badge discovery poller. It:
//   - Loads configuration and initializes structured logging.
//   - Loads the badge registry from the data directory.
//   - Starts the background discovery poller.
//   - Exposes the HTTP API with the proxy, admin, health, and metrics routes.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"badgerelay/catalog"
	"badgerelay/config"
	"badgerelay/enrich"
	"badgerelay/registry"
	"badgerelay/server"
	"badgerelay/telemetry"
	"badgerelay/twitchapi"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateTwitchReady(); err != nil {
		slog.Warn("twitch credentials missing; /api/badges and /api/emotes will fail", slog.Any("err", err))
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdown, err := telemetry.InitTracing("badgerelay", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Durable badge registry. A corrupt store is fatal: starting anyway would
	// rediscover the entire catalog and flood the curation queue.
	reg, err := registry.Load(cfg.DataDir)
	if err != nil {
		if errors.Is(err, registry.ErrCorruptState) {
			slog.Error("registry state corrupt; refusing to start", slog.Any("err", err), slog.String("dir", cfg.DataDir))
		} else {
			slog.Error("failed to load registry", slog.Any("err", err))
		}
		os.Exit(1)
	}
	slog.Info("registry loaded", slog.String("dir", cfg.DataDir), slog.Int("known_badges", reg.KnownCount()))

	tokenSource := &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret}
	helix := &twitchapi.HelixClient{AppTokenSource: tokenSource, ClientID: cfg.TwitchClientID}
	enricher := &enrich.Service{Overlay: reg}
	poller := &catalog.Poller{
		Registry:   reg,
		CatalogURL: cfg.CatalogURL,
		Disabled:   cfg.PollDisabled,
		Timeout:    cfg.ScrapeTimeout,
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go poller.Run(ctx)

	handlers := server.NewHandlers(helix, enricher, poller, reg)
	if err := server.Start(ctx, handlers, cfg.HTTPAddr); err != nil {
		slog.Error("http server exited with error", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("shutting down")
}
