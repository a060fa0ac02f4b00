// Package enrich annotates raw Helix badge/emote payloads with "added on"
// timestamps from the static tables and the discovery registry, plus
// animated/static CDN URL variants for emotes. It performs no I/O of its own.
package enrich

import (
	"fmt"
	"sort"
	"strings"
)

const emoteCDNBase = "https://static-cdn.jtvnw.net/emoticons/v2"

// OverlayProvider supplies dynamically discovered badge timestamps layered on
// top of the static table. Overlay values win for identical keys.
type OverlayProvider interface {
	TimestampOverlay() map[string]string
}

// Service composes the static tables with the registry overlay to annotate
// upstream payloads before they are returned to a caller.
type Service struct {
	// Overlay may be nil; enrichment then uses the static tables alone.
	Overlay OverlayProvider
}

// badgeTable merges the static table with the registry overlay. Static entries
// keep their position (overlay values replace theirs in place); overlay-only
// keys follow in sorted order so the first-match-wins substring policy stays
// deterministic.
func (s *Service) badgeTable() []Entry {
	table := BadgeTimestamps()
	if s.Overlay == nil {
		return table
	}
	overlay := s.Overlay.TimestampOverlay()
	if len(overlay) == 0 {
		return table
	}
	seen := make(map[string]struct{}, len(table))
	for i, e := range table {
		seen[e.Key] = struct{}{}
		if ts, ok := overlay[e.Key]; ok {
			table[i].Timestamp = ts
		}
	}
	extra := make([]string, 0, len(overlay))
	for k := range overlay {
		if _, ok := seen[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		table = append(table, Entry{Key: k, Timestamp: overlay[k]})
	}
	return table
}

// lookup finds a timestamp for id: exact key match first, then case-insensitive
// substring containment in either direction, first table entry winning.
func lookup(table []Entry, id string) (string, bool) {
	id = strings.ToLower(id)
	if id == "" {
		return "", false
	}
	for _, e := range table {
		if e.Key == id {
			return e.Timestamp, true
		}
	}
	for _, e := range table {
		if strings.Contains(id, e.Key) || strings.Contains(e.Key, id) {
			return e.Timestamp, true
		}
	}
	return "", false
}

// EnrichBadges annotates each entry of the Helix global-badges payload in place.
// Matched badges get created_at and has_real_timestamp=true; unmatched badges
// only get has_real_timestamp=false, never a guessed date.
func (s *Service) EnrichBadges(payload map[string]any) map[string]any {
	data, ok := payload["data"].([]any)
	if !ok {
		return payload
	}
	table := s.badgeTable()
	for _, item := range data {
		badge, ok := item.(map[string]any)
		if !ok {
			continue
		}
		setID, _ := badge["set_id"].(string)
		if ts, found := lookup(table, setID); found {
			badge["created_at"] = ts
			badge["has_real_timestamp"] = true
		} else {
			badge["has_real_timestamp"] = false
		}
	}
	return payload
}

// EnrichEmotes annotates each entry of the Helix global-emotes payload in place.
// Emotes carry no has_real_timestamp flag and omit created_at entirely when
// unmatched. Every emote gets animated/static CDN URL variants.
func (s *Service) EnrichEmotes(payload map[string]any) map[string]any {
	data, ok := payload["data"].([]any)
	if !ok {
		return payload
	}
	table := EmoteTimestamps()
	for _, item := range data {
		emote, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := emote["name"].(string)
		if ts, found := lookup(table, strings.ToLower(name)); found {
			emote["created_at"] = ts
		}
		addAnimationURLs(emote)
	}
	return payload
}

// addAnimationURLs merges animated and static CDN variants into the emote's
// images map. The animated/static keys are unconditionally overwritten; any
// unrelated keys the upstream sent are preserved.
func addAnimationURLs(emote map[string]any) {
	id, _ := emote["id"].(string)
	if id == "" {
		return
	}
	images, ok := emote["images"].(map[string]any)
	if !ok {
		images = map[string]any{}
	}
	// The CDN exposes scales 1.0/2.0/3.0; the 4x key historically maps to 3.0.
	for suffix, scale := range map[string]string{"1x": "1.0", "2x": "2.0", "4x": "3.0"} {
		images["animated_url_"+suffix] = fmt.Sprintf("%s/%s/animated/dark/%s", emoteCDNBase, id, scale)
		images["static_url_"+suffix] = fmt.Sprintf("%s/%s/static/dark/%s", emoteCDNBase, id, scale)
	}
	emote["images"] = images
	emote["prefer_animated"] = true
}
