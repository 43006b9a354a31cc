package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTAdapter talks to a device provider's JSON-over-HTTP inventory API.
// Both DigitalMatter- and Teltonika-style feeds expose the same surface:
// GET /inventory, GET /heartbeats?ids=..., GET /health.
type RESTAdapter struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTAdapter creates a REST provider adapter.
func NewRESTAdapter(name string, cfg RESTConfig) *RESTAdapter {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	return &RESTAdapter{
		name:    name,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.ApiKey,
		client:  &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Name implements Adapter.
func (a *RESTAdapter) Name() string { return a.name }

// FetchInventory implements Adapter.
func (a *RESTAdapter) FetchInventory(ctx context.Context) (*Inventory, error) {
	var inv Inventory
	if err := a.getJSON(ctx, "/inventory", nil, &inv); err != nil {
		return nil, fmt.Errorf("fetch inventory from %s: %w", a.name, err)
	}
	if inv.FetchedAt.IsZero() {
		inv.FetchedAt = time.Now().UTC()
	}
	return &inv, nil
}

// FetchHeartbeats implements Adapter.
func (a *RESTAdapter) FetchHeartbeats(ctx context.Context, ids []string) ([]Heartbeat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	var beats []Heartbeat
	if err := a.getJSON(ctx, "/heartbeats", q, &beats); err != nil {
		return nil, fmt.Errorf("fetch heartbeats from %s: %w", a.name, err)
	}
	return beats, nil
}

// Healthy implements Adapter.
func (a *RESTAdapter) Healthy(ctx context.Context) (bool, error) {
	req, err := a.newRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return false, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (a *RESTAdapter) newRequest(ctx context.Context, method, path string, q url.Values) (*http.Request, error) {
	u := a.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (a *RESTAdapter) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := a.newRequest(ctx, http.MethodGet, path, q)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s%s", resp.StatusCode, a.baseURL, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s%s: %w", a.baseURL, path, err)
	}
	return nil
}
