// Package catalog scrapes the community badge catalog page and runs the
// discovery poller that diffs it against the registry's known set.
package catalog

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScrapedBadge is one badge record extracted from the catalog page.
type ScrapedBadge struct {
	SetID       string
	Name        string
	Description string
	CreatedAt   string
	UserCount   int
	ImageURLs   []string
	Source      string
}

const (
	sourceHydration = "hydration"
	sourceFallback  = "fallback"

	hydrationSelector = "script#__NEXT_DATA__"
)

// fallbackPattern captures badge ids from catalog URL path fragments when the
// hydration payload is missing.
var fallbackPattern = regexp.MustCompile(`/global-badges/([a-z0-9][a-z0-9_-]*)`)

// hydrationPayload mirrors the slice of the page-hydration JSON we care about.
type hydrationPayload struct {
	Props struct {
		PageProps struct {
			Badges []struct {
				SetID       string `json:"set_id"`
				Name        string `json:"name"`
				Title       string `json:"title"`
				Description string `json:"description"`
				CreatedAt   string `json:"created_at"`
				UserCount   int    `json:"user_count"`
				Versions    []struct {
					ImageURL1x string `json:"image_url_1x"`
					ImageURL2x string `json:"image_url_2x"`
					ImageURL4x string `json:"image_url_4x"`
				} `json:"versions"`
			} `json:"badges"`
		} `json:"pageProps"`
	} `json:"props"`
}

// ExtractBadges parses the scraped catalog HTML into a set-id keyed mapping.
// The embedded hydration JSON is the primary source; when it is absent or
// empty the raw text is scanned for badge URL fragments instead. Malformed
// input never raises: the extractor degrades to an empty mapping.
func ExtractBadges(html string) map[string]ScrapedBadge {
	if badges := extractFromHydration(html); len(badges) > 0 {
		return badges
	}
	return extractFromPaths(html)
}

func extractFromHydration(html string) map[string]ScrapedBadge {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("badge page parse failed", slog.Any("err", err))
		return nil
	}
	raw := doc.Find(hydrationSelector).First().Text()
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var payload hydrationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		slog.Warn("badge hydration payload undecodable", slog.Any("err", err))
		return nil
	}

	out := make(map[string]ScrapedBadge, len(payload.Props.PageProps.Badges))
	for _, b := range payload.Props.PageProps.Badges {
		id := strings.ToLower(strings.TrimSpace(b.SetID))
		if id == "" {
			continue
		}
		name := b.Name
		if name == "" {
			name = b.Title
		}
		if name == "" {
			name = titleCase(id)
		}
		var urls []string
		for _, v := range b.Versions {
			for _, u := range []string{v.ImageURL1x, v.ImageURL2x, v.ImageURL4x} {
				if u != "" {
					urls = append(urls, u)
				}
			}
		}
		out[id] = ScrapedBadge{
			SetID:       id,
			Name:        name,
			Description: b.Description,
			CreatedAt:   b.CreatedAt,
			UserCount:   b.UserCount,
			ImageURLs:   urls,
			Source:      sourceHydration,
		}
	}
	return out
}

func extractFromPaths(html string) map[string]ScrapedBadge {
	out := make(map[string]ScrapedBadge)
	for _, m := range fallbackPattern.FindAllStringSubmatch(html, -1) {
		id := m[1]
		if _, ok := out[id]; ok {
			continue
		}
		out[id] = ScrapedBadge{
			SetID:       id,
			Name:        titleCase(id),
			Description: "Twitch global badge",
			Source:      sourceFallback,
		}
	}
	return out
}

// titleCase turns "dreamcon-2024" into "Dreamcon 2024".
func titleCase(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
