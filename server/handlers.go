package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"badgerelay/catalog"
	"badgerelay/enrich"
	"badgerelay/registry"
	"badgerelay/telemetry"
	"badgerelay/twitchapi"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	Helix    *twitchapi.HelixClient
	Enricher *enrich.Service
	Poller   *catalog.Poller
	Registry *registry.Registry
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(helix *twitchapi.HelixClient, enricher *enrich.Service, poller *catalog.Poller, reg *registry.Registry) *Handlers {
	return &Handlers{Helix: helix, Enricher: enricher, Poller: poller, Registry: reg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an internal failure to the {"error": ...} body the API
// contract promises. The underlying error is logged, never leaked.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleBadges serves the enriched global badge list.
func (h *Handlers) HandleBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := h.Helix.GlobalBadges(r.Context())
	if err != nil {
		slog.Error("fetching badges failed", slog.Any("err", err))
		if errors.Is(err, twitchapi.ErrAuthFailure) {
			writeError(w, http.StatusInternalServerError, "Failed to get access token")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch badges")
		return
	}
	writeJSON(w, http.StatusOK, h.Enricher.EnrichBadges(payload))
	telemetry.IncBadgeRequest()
}

// HandleEmotes serves the enriched global emote list.
func (h *Handlers) HandleEmotes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := h.Helix.GlobalEmotes(r.Context())
	if err != nil {
		slog.Error("fetching emotes failed", slog.Any("err", err))
		if errors.Is(err, twitchapi.ErrAuthFailure) {
			writeError(w, http.StatusInternalServerError, "Failed to get access token")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch emotes")
		return
	}
	writeJSON(w, http.StatusOK, h.Enricher.EnrichEmotes(payload))
	telemetry.IncEmoteRequest()
}

// HandleUpdateBadges triggers one discovery cycle and reports summary counts.
func (h *Handlers) HandleUpdateBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := h.Poller.CheckForNewBadges(r.Context())
	if err != nil {
		slog.Error("badge update cycle failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Badge check failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       out.State,
		"new_badges":  out.NewBadges,
		"added":       len(out.NewBadges),
		"total_known": out.TotalKnown,
		"checked_at":  out.CheckedAt,
	})
}

// HandlePendingBadges lists discovered badges awaiting curation.
func (h *Handlers) HandlePendingBadges(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pending_badges": h.Registry.Pending(),
		"last_checked":   h.Registry.LastChecked(),
	})
}

// approveRequest is the /api/admin/approve-badge body.
type approveRequest struct {
	BadgeID     string         `json:"badge_id"`
	UpdatedInfo map[string]any `json:"updated_info"`
}

// HandleApproveBadge marks a pending discovery as curated.
func (h *Handlers) HandleApproveBadge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BadgeID == "" || len(req.UpdatedInfo) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid data"})
		return
	}
	badge, err := h.Registry.Approve(req.BadgeID, req.UpdatedInfo)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Badge not found"})
			return
		}
		slog.Error("badge approval failed", slog.String("badge_id", req.BadgeID), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Approval failed")
		return
	}
	slog.Info("badge approved", slog.String("badge_id", badge.ID))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "badge_id": badge.ID, "approved_at": badge.ApprovedAt})
}

// HandleForceCheck runs a synchronous discovery cycle and returns the outcome
// together with the health snapshot.
func (h *Handlers) HandleForceCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := h.Poller.CheckForNewBadges(r.Context())
	body := map[string]any{
		"success":  err == nil,
		"outcome":  out,
		"poller":   h.Poller.Status(),
		"registry": h.Registry.Snapshot(),
	}
	if err != nil {
		slog.Warn("forced badge check failed", slog.Any("err", err))
		body["error"] = "Badge check failed"
		writeJSON(w, http.StatusInternalServerError, body)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleStatus returns the registry/poller health snapshot.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"poller":   h.Poller.Status(),
		"registry": h.Registry.Snapshot(),
	})
}

// HandleUpdateTimestamps forces a timestamp-DB refresh from the scraped page.
func (h *Handlers) HandleUpdateTimestamps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n, err := h.Poller.RefreshTimestamps(r.Context())
	if err != nil {
		slog.Error("timestamp refresh failed", slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, "Timestamp refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

// HandleHealthz responds to liveness probes by checking the registry store is
// reachable on disk.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.Registry.Dir()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
