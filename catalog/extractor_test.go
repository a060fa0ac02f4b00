package catalog

import (
	"strings"
	"testing"
)

const hydrationPage = `<!DOCTYPE html><html><body>
<script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"badges":[
  {"set_id":"Gone-Bananas","title":"Gone Bananas","description":"April fools",
   "created_at":"2025-04-01T17:07:13.529Z","user_count":120,
   "versions":[{"image_url_1x":"https://cdn.example/1x","image_url_2x":"https://cdn.example/2x","image_url_4x":""}]},
  {"set_id":"clips-leader","name":"Clips Leader"},
  {"set_id":"  ","name":"whitespace only"}
]}}}
</script></body></html>`

func TestExtractBadges_Hydration(t *testing.T) {
	badges := ExtractBadges(hydrationPage)
	if len(badges) != 2 {
		t.Fatalf("got %d badges, want 2: %v", len(badges), badges)
	}

	b, ok := badges["gone-bananas"]
	if !ok {
		t.Fatal("set_id not lowercased")
	}
	if b.Name != "Gone Bananas" {
		t.Errorf("Name = %q, title fallback failed", b.Name)
	}
	if b.CreatedAt != "2025-04-01T17:07:13.529Z" {
		t.Errorf("CreatedAt = %q", b.CreatedAt)
	}
	if b.UserCount != 120 {
		t.Errorf("UserCount = %d", b.UserCount)
	}
	if len(b.ImageURLs) != 2 {
		t.Errorf("ImageURLs = %v, empty version URLs must be dropped", b.ImageURLs)
	}
	if b.Source != sourceHydration {
		t.Errorf("Source = %q", b.Source)
	}

	if badges["clips-leader"].Name != "Clips Leader" {
		t.Errorf("name field ignored: %v", badges["clips-leader"])
	}
}

func TestExtractBadges_PathFallback(t *testing.T) {
	page := `<html><body>
	<a href="/twitch/global-badges/evo-2025">evo</a>
	<a href="/twitch/global-badges/evo-2025/1">dup</a>
	<a href="/twitch/global-badges/gold-pixel-heart">heart</a>
	</body></html>`

	badges := ExtractBadges(page)
	if len(badges) != 2 {
		t.Fatalf("got %d badges, want 2: %v", len(badges), badges)
	}
	b := badges["evo-2025"]
	if b.Name != "Evo 2025" {
		t.Errorf("Name = %q, want title-cased id", b.Name)
	}
	if b.Source != sourceFallback {
		t.Errorf("Source = %q", b.Source)
	}
}

func TestExtractBadges_MalformedHydrationFallsBack(t *testing.T) {
	page := `<html><body>
	<script id="__NEXT_DATA__">{not json at all</script>
	<a href="/twitch/global-badges/bot-badge">bot</a>
	</body></html>`

	badges := ExtractBadges(page)
	if _, ok := badges["bot-badge"]; !ok {
		t.Errorf("path fallback skipped after undecodable hydration: %v", badges)
	}
}

func TestExtractBadges_GarbageYieldsEmpty(t *testing.T) {
	if badges := ExtractBadges("\x00\x01 not html, no links"); len(badges) != 0 {
		t.Errorf("got %v, want empty", badges)
	}
	if badges := ExtractBadges(""); len(badges) != 0 {
		t.Errorf("got %v, want empty", badges)
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"dreamcon-2024": "Dreamcon 2024",
		"bot_badge":     "Bot Badge",
		"legendus":      "Legendus",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
	if got := titleCase("a"); !strings.EqualFold(got, "a") {
		t.Errorf("titleCase single rune = %q", got)
	}
}
