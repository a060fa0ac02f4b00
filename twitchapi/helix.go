// Package twitchapi contains minimal helpers to interact with Twitch Helix chat APIs
// for listing global badges and emotes, using an app access token.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrUpstreamFailure wraps transport errors and non-2xx responses from Helix.
var ErrUpstreamFailure = errors.New("twitch helix request failed")

// HelixClient provides the two global-chat listing calls the proxy serves.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// GlobalBadges fetches the platform-wide chat badge sets.
// The response is returned as the decoded JSON document so unknown fields
// survive the round trip; callers enrich it before serving.
func (hc *HelixClient) GlobalBadges(ctx context.Context) (map[string]any, error) {
	return hc.fetchGlobal(ctx, "https://api.twitch.tv/helix/chat/badges/global")
}

// GlobalEmotes fetches the platform-wide chat emotes.
func (hc *HelixClient) GlobalEmotes(ctx context.Context) (map[string]any, error) {
	return hc.fetchGlobal(ctx, "https://api.twitch.tv/helix/chat/emotes/global")
}

func (hc *HelixClient) fetchGlobal(ctx context.Context, endpoint string) (map[string]any, error) {
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return nil, err
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrUpstreamFailure, resp.Status, string(b))
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstreamFailure, err)
	}
	return body, nil
}
