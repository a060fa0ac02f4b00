// Package telemetry provides Prometheus metrics, OpenTelemetry tracing, and
// correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollCycles       prometheus.Counter
	PollFailures     prometheus.Counter
	BadgesDiscovered prometheus.Counter
	BadgeRequests    prometheus.Counter
	EmoteRequests    prometheus.Counter

	// Histograms (seconds)
	ScrapeDuration prometheus.Observer

	// Gauges
	PendingQueueGauge prometheus.Gauge
	LastCheckGauge    prometheus.Gauge // unix seconds of last completed discovery check
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollCycles = promauto.NewCounter(prometheus.CounterOpts{Name: "badge_poll_cycles_total", Help: "Number of badge discovery cycles run"})
		PollFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "badge_poll_failures_total", Help: "Number of badge discovery cycles that failed"})
		BadgesDiscovered = promauto.NewCounter(prometheus.CounterOpts{Name: "badge_discovered_total", Help: "Number of new badges queued for curation"})
		BadgeRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "badge_enrich_requests_total", Help: "Number of /api/badges requests served"})
		EmoteRequests = promauto.NewCounter(prometheus.CounterOpts{Name: "emote_enrich_requests_total", Help: "Number of /api/emotes requests served"})
		ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "badge_scrape_duration_seconds", Help: "Catalog page fetch+extract duration seconds", Buckets: prometheus.DefBuckets})
		PendingQueueGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "badge_pending_queue_depth", Help: "Discovered badges awaiting curation"})
		LastCheckGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "badge_last_check_timestamp_seconds", Help: "Unix time of the last completed discovery check"})
	})
}

// The helpers below are nil-safe so components can run without Init (tests).

// IncPollCycle counts one discovery cycle.
func IncPollCycle() {
	if PollCycles != nil {
		PollCycles.Inc()
	}
}

// IncPollFailure counts one failed discovery cycle.
func IncPollFailure() {
	if PollFailures != nil {
		PollFailures.Inc()
	}
}

// AddDiscovered counts n newly queued badges.
func AddDiscovered(n int) {
	if BadgesDiscovered != nil && n > 0 {
		BadgesDiscovered.Add(float64(n))
	}
}

// SetPendingDepth records the current curation queue depth.
func SetPendingDepth(n int) {
	if PendingQueueGauge != nil {
		PendingQueueGauge.Set(float64(n))
	}
}

// SetLastCheck records when the last discovery check completed.
func SetLastCheck(t time.Time) {
	if LastCheckGauge != nil {
		LastCheckGauge.Set(float64(t.Unix()))
	}
}

// ObserveScrape records a catalog scrape duration.
func ObserveScrape(d time.Duration) {
	if ScrapeDuration != nil {
		ScrapeDuration.Observe(d.Seconds())
	}
}

// IncBadgeRequest counts one served /api/badges request.
func IncBadgeRequest() {
	if BadgeRequests != nil {
		BadgeRequests.Inc()
	}
}

// IncEmoteRequest counts one served /api/emotes request.
func IncEmoteRequest() {
	if EmoteRequests != nil {
		EmoteRequests.Inc()
	}
}

// Correlation ID helpers ----------------------------------------------------

type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
