// Package registry owns the durable badge-discovery state: the monotonic set of
// known badge ids, the pending-approval queue, and the timestamp/detail database
// with its bounded update history. State lives in small JSON documents under a
// data directory; the poller is the sole writer, the serving path only reads.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"badgerelay/enrich"
)

const (
	knownBadgesFile  = "known_badges.json"
	timestampDBFile  = "badge_timestamps.json"
	legacyFlatFile   = "timestamps_legacy.json"
	maxHistory       = 10
	maxSampleIDs     = 5
	timestampVersion = 2
)

var (
	// ErrCorruptState is returned when a persisted document exists but cannot
	// be decoded. The caller decides whether to abort or recover; the registry
	// never silently discards state.
	ErrCorruptState = errors.New("registry state corrupt")

	// ErrNotFound is returned by Approve when no pending entry has the id.
	ErrNotFound = errors.New("badge not found in pending queue")
)

// ResearchResult is one placeholder auto-research record attached to a discovery.
type ResearchResult struct {
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
	Results   string    `json:"results"`
}

// LocalizedInfo is the generated placeholder description for one language.
type LocalizedInfo struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Availability string   `json:"availability"`
	URL          string   `json:"url"`
}

// DiscoveredBadge is a badge id seen in the scraped catalog but absent from the
// known set. It stays in the queue indefinitely; approval only flips flags.
type DiscoveredBadge struct {
	ID              string                   `json:"id"`
	Name            string                   `json:"name"`
	Description     string                   `json:"description,omitempty"`
	AddedDate       string                   `json:"added_date,omitempty"`
	ImageURLs       []string                 `json:"image_urls,omitempty"`
	URL             string                   `json:"url,omitempty"`
	DiscoveredAt    time.Time                `json:"discovered_at"`
	AutoCollected   bool                     `json:"auto_collected"`
	ResearchNeeded  bool                     `json:"research_needed"`
	ResearchResults []ResearchResult         `json:"research_results,omitempty"`
	BasicInfo       map[string]LocalizedInfo `json:"basic_info,omitempty"`
	Approved        bool                     `json:"approved"`
	ApprovedAt      *time.Time               `json:"approved_at,omitempty"`
	ApprovedInfo    map[string]any           `json:"approved_info,omitempty"`
}

// BadgeDetail is the scraped attribute record kept per badge id.
type BadgeDetail struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	UserCount   int      `json:"user_count,omitempty"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	Source      string   `json:"source"`
}

// UpdateRecord is one entry of the bounded discovery history ring.
type UpdateRecord struct {
	At           time.Time `json:"at"`
	Added        int       `json:"added"`
	Total        int       `json:"total"`
	SampleNewIDs []string  `json:"sample_new_ids,omitempty"`
}

// Snapshot is a read-only health view for the status endpoint.
type Snapshot struct {
	KnownBadges   int            `json:"known_badges"`
	QueueLength   int            `json:"queue_length"`
	PendingCount  int            `json:"pending_count"`
	Timestamps    int            `json:"timestamps"`
	LastChecked   time.Time      `json:"last_checked"`
	LastUpdated   time.Time      `json:"last_updated"`
	UpdateHistory []UpdateRecord `json:"update_history"`
}

// knownBadgesDoc is the primary persisted document.
type knownBadgesDoc struct {
	Badges         []string          `json:"badges"`
	LastChecked    time.Time         `json:"last_checked"`
	NewBadgesQueue []DiscoveredBadge `json:"new_badges_queue"`
}

// timestampDoc is the secondary timestamp/detail database document.
type timestampDoc struct {
	Version       int                    `json:"version"`
	Timestamps    map[string]string      `json:"timestamps"`
	BadgeDetails  map[string]BadgeDetail `json:"badge_details"`
	UpdateHistory []UpdateRecord         `json:"update_history"`
	LastUpdated   time.Time              `json:"last_updated"`
}

// Registry is the in-memory aggregate backed by the JSON documents.
type Registry struct {
	mu          sync.RWMutex
	dir         string
	known       map[string]struct{}
	queue       []DiscoveredBadge
	timestamps  map[string]string
	details     map[string]BadgeDetail
	history     []UpdateRecord
	lastChecked time.Time
	lastUpdated time.Time
}

// Load reads the registry documents from dir, creating dir and seeding the
// known set from the static badge table when no state exists yet. A document
// that exists but cannot be decoded yields ErrCorruptState.
func Load(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	r := &Registry{
		dir:        dir,
		known:      make(map[string]struct{}),
		timestamps: make(map[string]string),
		details:    make(map[string]BadgeDetail),
	}

	seeded := false
	b, err := os.ReadFile(filepath.Join(dir, knownBadgesFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		for _, id := range enrich.BadgeSeedIDs() {
			r.known[id] = struct{}{}
		}
		r.lastChecked = time.Now().UTC()
		seeded = true
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", knownBadgesFile, err)
	default:
		var doc knownBadgesDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, knownBadgesFile, err)
		}
		for _, id := range doc.Badges {
			r.known[id] = struct{}{}
		}
		r.queue = doc.NewBadgesQueue
		r.lastChecked = doc.LastChecked
	}

	b, err = os.ReadFile(filepath.Join(dir, timestampDBFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// fresh timestamp DB
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", timestampDBFile, err)
	default:
		var doc timestampDoc
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, timestampDBFile, err)
		}
		if doc.Timestamps != nil {
			r.timestamps = doc.Timestamps
		}
		if doc.BadgeDetails != nil {
			r.details = doc.BadgeDetails
		}
		r.history = doc.UpdateHistory
		r.lastUpdated = doc.LastUpdated
	}

	if seeded {
		if err := r.save(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Dir returns the data directory backing this registry.
func (r *Registry) Dir() string { return r.dir }

// save rewrites all documents. Callers must hold r.mu.
func (r *Registry) save() error {
	ids := make([]string, 0, len(r.known))
	for id := range r.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	known := knownBadgesDoc{Badges: ids, LastChecked: r.lastChecked, NewBadgesQueue: r.queue}
	if err := writeJSON(filepath.Join(r.dir, knownBadgesFile), known); err != nil {
		return err
	}
	db := timestampDoc{
		Version:       timestampVersion,
		Timestamps:    r.timestamps,
		BadgeDetails:  r.details,
		UpdateHistory: r.history,
		LastUpdated:   r.lastUpdated,
	}
	if err := writeJSON(filepath.Join(r.dir, timestampDBFile), db); err != nil {
		return err
	}
	// Flat id->timestamp file kept for consumers of the pre-v2 layout.
	return writeJSON(filepath.Join(r.dir, legacyFlatFile), r.timestamps)
}

// writeJSON overwrites path via a temp file + rename so readers never observe a
// partially written document.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return os.Rename(tmp, path)
}

// IsKnown reports whether id has already been discovered.
func (r *Registry) IsKnown(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.known[id]
	return ok
}

// KnownCount returns the size of the known set.
func (r *Registry) KnownCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// LastChecked returns the time of the most recent discovery check.
func (r *Registry) LastChecked() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastChecked
}

// Touch records a completed check that found nothing new. In-memory only;
// a no-change cycle is not worth a disk write.
func (r *Registry) Touch(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastChecked = at
}

// AddDiscoveries appends newly discovered badges to the queue, grows the known
// set, merges scraped timestamps/details, records a history entry (ring of
// maxHistory), and persists everything.
func (r *Registry) AddDiscoveries(badges []DiscoveredBadge, timestamps map[string]string, details map[string]BadgeDetail, checkedAt time.Time) (UpdateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sample := make([]string, 0, maxSampleIDs)
	for _, b := range badges {
		r.known[b.ID] = struct{}{}
		r.queue = append(r.queue, b)
		if len(sample) < maxSampleIDs {
			sample = append(sample, b.ID)
		}
	}
	r.mergeLocked(timestamps, details)

	rec := UpdateRecord{At: checkedAt, Added: len(badges), Total: len(r.known), SampleNewIDs: sample}
	r.history = append(r.history, rec)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	r.lastChecked = checkedAt
	r.lastUpdated = checkedAt

	if err := r.save(); err != nil {
		return UpdateRecord{}, err
	}
	return rec, nil
}

// MergeTimestamps folds freshly scraped timestamp/detail data into the database
// without touching the known set or queue, and persists. Returns the number of
// timestamp keys written.
func (r *Registry) MergeTimestamps(timestamps map[string]string, details map[string]BadgeDetail) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.mergeLocked(timestamps, details)
	r.lastUpdated = time.Now().UTC()
	if err := r.save(); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Registry) mergeLocked(timestamps map[string]string, details map[string]BadgeDetail) int {
	n := 0
	for id, ts := range timestamps {
		if ts == "" {
			continue
		}
		r.timestamps[id] = ts
		n++
	}
	for id, d := range details {
		r.details[id] = d
	}
	return n
}

// Approve marks the first pending entry with the given id as curated. The first
// approval wins the approved_at stamp; later calls only replace the supplied
// info. Unknown ids return ErrNotFound.
func (r *Registry) Approve(id string, info map[string]any) (DiscoveredBadge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.queue {
		if r.queue[i].ID != id {
			continue
		}
		b := &r.queue[i]
		b.ResearchNeeded = false
		b.Approved = true
		if b.ApprovedAt == nil {
			now := time.Now().UTC()
			b.ApprovedAt = &now
		}
		b.ApprovedInfo = info
		if err := r.save(); err != nil {
			return DiscoveredBadge{}, err
		}
		return *b, nil
	}
	return DiscoveredBadge{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Pending returns the discovered badges still awaiting curation.
func (r *Registry) Pending() []DiscoveredBadge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DiscoveredBadge, 0)
	for _, b := range r.queue {
		if b.ResearchNeeded {
			out = append(out, b)
		}
	}
	return out
}

// TimestampOverlay returns a copy of the dynamic id->timestamp mapping for the
// enrichment path.
func (r *Registry) TimestampOverlay() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.timestamps))
	for k, v := range r.timestamps {
		out[k] = v
	}
	return out
}

// Snapshot returns a health view of the registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pending := 0
	for _, b := range r.queue {
		if b.ResearchNeeded {
			pending++
		}
	}
	hist := make([]UpdateRecord, len(r.history))
	copy(hist, r.history)
	return Snapshot{
		KnownBadges:   len(r.known),
		QueueLength:   len(r.queue),
		PendingCount:  pending,
		Timestamps:    len(r.timestamps),
		LastChecked:   r.lastChecked,
		LastUpdated:   r.lastUpdated,
		UpdateHistory: hist,
	}
}
