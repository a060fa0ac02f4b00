package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"badgerelay/catalog"
	"badgerelay/enrich"
	"badgerelay/registry"
	"badgerelay/twitchapi"
)

const catalogPage = `<html><body>
<a href="/twitch/global-badges/dreamcon-2024">known</a>
<a href="/twitch/global-badges/handler-test-badge">new</a>
</body></html>`

// defaultTwitchHandler serves the token endpoint and minimal Helix payloads.
func defaultTwitchHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "oauth2/token"):
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"test-token","expires_in":3600,"token_type":"bearer"}`))
	case strings.Contains(r.URL.Path, "chat/badges/global"):
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"set_id":"dreamcon-2024"},{"set_id":"mystery-badge-x"}]}`))
	case strings.Contains(r.URL.Path, "chat/emotes/global"):
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"emote-1","name":"elegiggle","images":{"url_1x":"keep-me"}}]}`))
	default:
		http.NotFound(w, r)
	}
}

func newTestHandlers(t *testing.T, twitchHandler http.HandlerFunc) *Handlers {
	t.Helper()
	twitchSrv := httptest.NewServer(twitchHandler)
	t.Cleanup(twitchSrv.Close)
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(catalogPage))
	}))
	t.Cleanup(catalogSrv.Close)

	reg, err := registry.Load(t.TempDir())
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	client := &http.Client{Transport: &rewriteTransport{Transport: http.DefaultTransport, host: twitchSrv.URL}}
	helix := &twitchapi.HelixClient{
		AppTokenSource: &twitchapi.TokenSource{ClientID: "id", ClientSecret: "secret", HTTPClient: client},
		ClientID:       "id",
		HTTPClient:     client,
	}
	poller := &catalog.Poller{
		Registry:   reg,
		CatalogURL: catalogSrv.URL,
		HTTPClient: catalogSrv.Client(),
		Researcher: &catalog.StubResearcher{},
	}
	return NewHandlers(helix, &enrich.Service{Overlay: reg}, poller, reg)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response not JSON: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHandleBadges(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleBadges(rec, httptest.NewRequest(http.MethodGet, "/api/badges", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	data := body["data"].([]any)
	known := data[0].(map[string]any)
	if known["has_real_timestamp"] != true || known["created_at"] != "2024-08-28T21:00:06.004Z" {
		t.Errorf("known badge not enriched: %v", known)
	}
	unknown := data[1].(map[string]any)
	if unknown["has_real_timestamp"] != false {
		t.Errorf("unknown badge mislabeled: %v", unknown)
	}
}

func TestHandleBadges_MethodNotAllowed(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleBadges(rec, httptest.NewRequest(http.MethodPost, "/api/badges", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleBadges_TokenFailure(t *testing.T) {
	h := newTestHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	rec := httptest.NewRecorder()
	h.HandleBadges(rec, httptest.NewRequest(http.MethodGet, "/api/badges", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Failed to get access token" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestHandleBadges_UpstreamFailure(t *testing.T) {
	h := newTestHandlers(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "oauth2/token") {
			w.Write([]byte(`{"access_token":"t","expires_in":3600}`))
			return
		}
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})
	rec := httptest.NewRecorder()
	h.HandleBadges(rec, httptest.NewRequest(http.MethodGet, "/api/badges", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Failed to fetch badges" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestHandleEmotes(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleEmotes(rec, httptest.NewRequest(http.MethodGet, "/api/emotes", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	emote := decodeBody(t, rec)["data"].([]any)[0].(map[string]any)
	if emote["created_at"] != "2025-06-09T00:00:00.000Z" {
		t.Errorf("created_at = %v", emote["created_at"])
	}
	if emote["prefer_animated"] != true {
		t.Errorf("prefer_animated = %v", emote["prefer_animated"])
	}
	images := emote["images"].(map[string]any)
	if images["url_1x"] != "keep-me" {
		t.Errorf("upstream image key lost: %v", images)
	}
	if _, ok := images["animated_url_2x"]; !ok {
		t.Errorf("CDN variants missing: %v", images)
	}
}

func TestHandleUpdateBadges(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleUpdateBadges(rec, httptest.NewRequest(http.MethodPost, "/api/update-badges", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["state"] != string(catalog.StateUpdated) {
		t.Errorf("state = %v", body["state"])
	}
	if body["added"] != float64(1) {
		t.Errorf("added = %v", body["added"])
	}

	rec = httptest.NewRecorder()
	h.HandleUpdateBadges(rec, httptest.NewRequest(http.MethodGet, "/api/update-badges", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestHandlePendingBadges(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)

	rec := httptest.NewRecorder()
	h.HandlePendingBadges(rec, httptest.NewRequest(http.MethodGet, "/api/admin/pending-badges", nil))
	if got := decodeBody(t, rec)["pending_badges"].([]any); len(got) != 0 {
		t.Errorf("pending before discovery = %v", got)
	}

	rec = httptest.NewRecorder()
	h.HandleUpdateBadges(rec, httptest.NewRequest(http.MethodPost, "/api/update-badges", nil))

	rec = httptest.NewRecorder()
	h.HandlePendingBadges(rec, httptest.NewRequest(http.MethodGet, "/api/admin/pending-badges", nil))
	pending := decodeBody(t, rec)["pending_badges"].([]any)
	if len(pending) != 1 {
		t.Fatalf("pending = %v", pending)
	}
	entry := pending[0].(map[string]any)
	if entry["id"] != "handler-test-badge" || entry["research_needed"] != true {
		t.Errorf("pending entry = %v", entry)
	}
}

func TestHandleApproveBadge(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleUpdateBadges(rec, httptest.NewRequest(http.MethodPost, "/api/update-badges", nil))

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/admin/approve-badge", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		h.HandleApproveBadge(rec, req)
		return rec
	}

	// undecodable and incomplete bodies
	for _, body := range []string{"{broken", `{}`, `{"badge_id":"x"}`, `{"updated_info":{"a":1}}`} {
		if rec := post(body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}

	if rec := post(`{"badge_id":"no-such-badge","updated_info":{"a":1}}`); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}

	rec = post(`{"badge_id":"handler-test-badge","updated_info":{"note":"checked"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["badge_id"] != "handler-test-badge" || body["approved_at"] == nil {
		t.Errorf("approval response = %v", body)
	}
}

func TestHandleForceCheck(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleForceCheck(rec, httptest.NewRequest(http.MethodGet, "/api/admin/force-check", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if _, ok := body["poller"]; !ok {
		t.Error("poller status missing")
	}
	if _, ok := body["registry"]; !ok {
		t.Error("registry snapshot missing")
	}
}

func TestHandleForceCheck_ScrapeFailure(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	defer down.Close()
	h.Poller.CatalogURL = down.URL
	h.Poller.HTTPClient = down.Client()

	rec := httptest.NewRecorder()
	h.HandleForceCheck(rec, httptest.NewRequest(http.MethodGet, "/api/admin/force-check", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["error"] != "Badge check failed" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleStatus(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/admin/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	poller := body["poller"].(map[string]any)
	if poller["enabled"] != true {
		t.Errorf("poller status = %v", poller)
	}
	reg := body["registry"].(map[string]any)
	if reg["known_badges"].(float64) <= 0 {
		t.Errorf("registry snapshot = %v", reg)
	}
}

func TestHandleUpdateTimestamps(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleUpdateTimestamps(rec, httptest.NewRequest(http.MethodGet, "/api/admin/update-timestamps", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d\n%s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	// the fallback-sourced page carries no creation dates
	if body["updated"] != float64(0) {
		t.Errorf("updated = %v", body["updated"])
	}
}

func TestHandleHealthz(t *testing.T) {
	h := newTestHandlers(t, defaultTwitchHandler)
	rec := httptest.NewRecorder()
	h.HandleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

// rewriteTransport sends every request to the test server regardless of host.
type rewriteTransport struct {
	Transport http.RoundTripper
	host      string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.host, "http://")
	return t.Transport.RoundTrip(req)
}
