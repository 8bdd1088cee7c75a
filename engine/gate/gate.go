// Package gate is the entitlement check required before multiplayer entry.
// The concrete backend (license server, token ownership) is a vendor
// concern; the core only needs a yes/no answer and an action that attempts
// to satisfy the requirement.
package gate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Gate answers whether this player may enter multiplayer, and can attempt
// to obtain the entitlement. Both calls are fallible and may block on the
// network; the UI decides about retries.
type Gate interface {
	Check(ctx context.Context) (bool, error)
	Request(ctx context.Context) (bool, error)
}

// AllowAll passes every player. Used for solo play and local development.
type AllowAll struct{}

func (AllowAll) Check(context.Context) (bool, error)   { return true, nil }
func (AllowAll) Request(context.Context) (bool, error) { return true, nil }

// HTTPGate asks a license endpoint. GET <base>/check?uid=... returns
// {"entitled": bool}; POST <base>/request?uid=... attempts to grant and
// returns the same shape.
type HTTPGate struct {
	BaseURL string
	UID     string
	Client  *http.Client
}

// NewHTTPGate creates a gate against the given base URL for one player
func NewHTTPGate(baseURL, uid string) *HTTPGate {
	return &HTTPGate{
		BaseURL: baseURL,
		UID:     uid,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPGate) Check(ctx context.Context) (bool, error) {
	return g.ask(ctx, http.MethodGet, "/check")
}

func (g *HTTPGate) Request(ctx context.Context) (bool, error) {
	return g.ask(ctx, http.MethodPost, "/request")
}

func (g *HTTPGate) ask(ctx context.Context, method, path string) (bool, error) {
	url := fmt.Sprintf("%s%s?uid=%s", g.BaseURL, path, g.UID)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("entitlement %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("entitlement %s: unexpected status %d", path, resp.StatusCode)
	}
	var body struct {
		Entitled bool `json:"entitled"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("entitlement %s: %w", path, err)
	}
	return body.Entitled, nil
}
