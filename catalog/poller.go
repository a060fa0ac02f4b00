package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"badgerelay/registry"
	"badgerelay/telemetry"
)

// ErrScrapeFailure wraps transport errors and non-2xx responses from the
// catalog page fetch.
var ErrScrapeFailure = errors.New("badge catalog fetch failed")

// State labels the outcome of one discovery cycle.
type State string

const (
	StateUpdated  State = "updated"
	StateNoChange State = "no_change"
	StateFailed   State = "failed"
	StateDisabled State = "disabled"
)

// Scheduling policy. Discovery staleness is tolerable; the loop must never
// terminate on transient errors.
const (
	daytimeInterval   = 30 * time.Minute
	nighttimeInterval = time.Hour
	retryWait         = 10 * time.Minute
	backoffWait       = time.Hour
	backoffThreshold  = 5

	daytimeStartHour = 6
	daytimeEndHour   = 22

	defaultScrapeTimeout = 15 * time.Second
	maxPageBytes         = 8 << 20
)

// Outcome summarizes one discovery cycle for callers (admin endpoints, logs).
type Outcome struct {
	State      State     `json:"state"`
	NewBadges  []string  `json:"new_badges,omitempty"`
	TotalKnown int       `json:"total_known"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Status is the poller half of the health snapshot.
type Status struct {
	Enabled             bool      `json:"enabled"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastState           State     `json:"last_state,omitempty"`
	LastChecked         time.Time `json:"last_checked"`
}

// Poller periodically scrapes the badge catalog, diffs the extracted ids
// against the registry, and queues discoveries for curation. It is the sole
// writer of the registry.
type Poller struct {
	Registry   *registry.Registry
	CatalogURL string
	HTTPClient *http.Client
	Researcher Researcher
	Disabled   bool
	Timeout    time.Duration

	// Now is the clock used for schedule decisions; nil means time.Now.
	Now func() time.Time

	mu        sync.Mutex
	failures  int
	lastState State
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Poller) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Poller) researcher() Researcher {
	if p.Researcher != nil {
		return p.Researcher
	}
	return &StubResearcher{Delay: time.Second}
}

func (p *Poller) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return defaultScrapeTimeout
}

// CheckForNewBadges runs one discovery cycle: fetch, extract, diff, enqueue,
// persist. A scrape or persist failure is returned to the caller (and to the
// schedule); an empty extraction simply yields no change.
func (p *Poller) CheckForNewBadges(ctx context.Context) (Outcome, error) {
	if p.Disabled {
		return Outcome{State: StateDisabled}, nil
	}
	telemetry.IncPollCycle()
	checkedAt := p.now().UTC()
	start := time.Now()

	html, err := p.fetchCatalog(ctx)
	if err != nil {
		telemetry.IncPollFailure()
		slog.Warn("badge catalog fetch failed", slog.Any("err", err))
		return p.finish(Outcome{State: StateFailed, TotalKnown: p.Registry.KnownCount(), CheckedAt: checkedAt}), err
	}
	scraped := ExtractBadges(html)
	telemetry.ObserveScrape(time.Since(start))

	newIDs := make([]string, 0)
	for id := range scraped {
		if !p.Registry.IsKnown(id) {
			newIDs = append(newIDs, id)
		}
	}
	sort.Strings(newIDs)

	if len(newIDs) == 0 {
		p.Registry.Touch(checkedAt)
		telemetry.SetLastCheck(checkedAt)
		return p.finish(Outcome{State: StateNoChange, TotalKnown: p.Registry.KnownCount(), CheckedAt: checkedAt}), nil
	}

	slog.Info("new badges detected", slog.Int("count", len(newIDs)), slog.Any("ids", newIDs))
	badges := make([]registry.DiscoveredBadge, 0, len(newIDs))
	for _, id := range newIDs {
		badges = append(badges, p.buildDiscovery(ctx, scraped[id], checkedAt))
	}
	timestamps, details := timestampData(scraped)
	rec, err := p.Registry.AddDiscoveries(badges, timestamps, details, checkedAt)
	if err != nil {
		telemetry.IncPollFailure()
		slog.Error("persisting discoveries failed", slog.Any("err", err))
		return p.finish(Outcome{State: StateFailed, NewBadges: newIDs, CheckedAt: checkedAt}), err
	}

	telemetry.AddDiscovered(len(newIDs))
	telemetry.SetPendingDepth(len(p.Registry.Pending()))
	telemetry.SetLastCheck(checkedAt)
	return p.finish(Outcome{State: StateUpdated, NewBadges: newIDs, TotalKnown: rec.Total, CheckedAt: checkedAt}), nil
}

// RefreshTimestamps re-scrapes the catalog and merges timestamp/detail data
// into the registry without running discovery. Returns the number of
// timestamp keys written.
func (p *Poller) RefreshTimestamps(ctx context.Context) (int, error) {
	html, err := p.fetchCatalog(ctx)
	if err != nil {
		return 0, err
	}
	timestamps, details := timestampData(ExtractBadges(html))
	return p.Registry.MergeTimestamps(timestamps, details)
}

func (p *Poller) fetchCatalog(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.CatalogURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailure, err)
	}
	req.Header.Set("User-Agent", "badgerelay/1.0")
	resp, err := p.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrScrapeFailure, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s", ErrScrapeFailure, resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrScrapeFailure, err)
	}
	return string(b), nil
}

// buildDiscovery assembles the curation-queue entry for one new badge,
// including the researcher stub output and the bilingual placeholder info.
func (p *Poller) buildDiscovery(ctx context.Context, s ScrapedBadge, at time.Time) registry.DiscoveredBadge {
	url := fmt.Sprintf("https://www.streamdatabase.com/twitch/global-badges/%s/1", s.SetID)
	return registry.DiscoveredBadge{
		ID:              s.SetID,
		Name:            s.Name,
		Description:     s.Description,
		AddedDate:       s.CreatedAt,
		ImageURLs:       s.ImageURLs,
		URL:             url,
		DiscoveredAt:    at,
		AutoCollected:   true,
		ResearchNeeded:  true,
		ResearchResults: p.researcher().Research(ctx, s.SetID, s.Name),
		BasicInfo: map[string]registry.LocalizedInfo{
			"ja": {
				Title:       s.Name,
				Description: fmt.Sprintf("%sは新しく追加されたTwitchグローバルバッジです。詳細な入手方法は調査中です。", s.Name),
				Requirements: []string{
					"入手方法は調査中",
					"詳細情報は随時更新予定",
					"Stream Databaseで最新情報を確認してください",
				},
				Availability: "unknown",
				URL:          url,
			},
			"en": {
				Title:       s.Name,
				Description: fmt.Sprintf("%s is a newly added Twitch global badge. Detailed obtaining method is under investigation.", s.Name),
				Requirements: []string{
					"Obtaining method under investigation",
					"Detailed information will be updated",
					"Check Stream Database for latest information",
				},
				Availability: "unknown",
				URL:          url,
			},
		},
	}
}

// timestampData splits scraped records into the registry's timestamp and
// detail mappings. Badges without a creation date contribute no timestamp:
// unknown stays unknown.
func timestampData(scraped map[string]ScrapedBadge) (map[string]string, map[string]registry.BadgeDetail) {
	timestamps := make(map[string]string)
	details := make(map[string]registry.BadgeDetail, len(scraped))
	for id, s := range scraped {
		if s.CreatedAt != "" {
			timestamps[id] = s.CreatedAt
		}
		details[id] = registry.BadgeDetail{
			Name:        s.Name,
			Description: s.Description,
			UserCount:   s.UserCount,
			ImageURLs:   s.ImageURLs,
			Source:      s.Source,
		}
	}
	return timestamps, details
}

func (p *Poller) finish(out Outcome) Outcome {
	p.mu.Lock()
	p.lastState = out.State
	p.mu.Unlock()
	return out
}

// Status reports the poller half of the health snapshot.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Enabled:             !p.Disabled,
		ConsecutiveFailures: p.failures,
		LastState:           p.lastState,
		LastChecked:         p.Registry.LastChecked(),
	}
}

// Run checks once immediately, then loops on the adaptive schedule until ctx
// is done. Failures never stop the loop.
func (p *Poller) Run(ctx context.Context) {
	slog.Info("badge discovery poller starting", slog.String("url", p.CatalogURL), slog.Bool("enabled", !p.Disabled))
	for {
		_, err := p.CheckForNewBadges(ctx)
		if ctx.Err() != nil {
			slog.Info("badge discovery poller stopped")
			return
		}
		wait := p.nextWait(err != nil)
		slog.Debug("badge discovery sleeping", slog.Duration("wait", wait))
		select {
		case <-ctx.Done():
			slog.Info("badge discovery poller stopped")
			return
		case <-time.After(wait):
		}
	}
}

// nextWait applies the adaptive schedule: 30m during local daytime (06-22),
// 60m at night, 10m after a failure, and a 1h backoff (with counter reset)
// once failures reach the threshold.
func (p *Poller) nextWait(failed bool) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if failed {
		p.failures++
		if p.failures >= backoffThreshold {
			p.failures = 0
			return backoffWait
		}
		return retryWait
	}
	p.failures = 0
	if h := p.now().Hour(); h >= daytimeStartHour && h < daytimeEndHour {
		return daytimeInterval
	}
	return nighttimeInterval
}
