package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SimPlatformAdapter extends RESTAdapter with the SIM-platform capability:
// full SIM inventory plus pushing description/tag changes upstream.
type SimPlatformAdapter struct {
	*RESTAdapter
}

// NewSimPlatformAdapter creates a SIM-platform adapter.
func NewSimPlatformAdapter(name string, cfg RESTConfig) *SimPlatformAdapter {
	return &SimPlatformAdapter{RESTAdapter: NewRESTAdapter(name, cfg)}
}

// FetchSims implements SimPlatform.
func (a *SimPlatformAdapter) FetchSims(ctx context.Context) ([]SimRecord, error) {
	var sims []SimRecord
	if err := a.getJSON(ctx, "/sims", nil, &sims); err != nil {
		return nil, fmt.Errorf("fetch sims from %s: %w", a.name, err)
	}
	return sims, nil
}

// UpdateSimDescription implements SimPlatform.
func (a *SimPlatformAdapter) UpdateSimDescription(ctx context.Context, iccid, description string) error {
	return a.patchSim(ctx, iccid, map[string]any{"description": description})
}

// UpdateSimTags implements SimPlatform.
func (a *SimPlatformAdapter) UpdateSimTags(ctx context.Context, iccid string, tags []string) error {
	return a.patchSim(ctx, iccid, map[string]any{"tags": tags})
}

func (a *SimPlatformAdapter) patchSim(ctx context.Context, iccid string, body map[string]any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, a.baseURL+"/sims/"+iccid, bytes.NewReader(b))
	if err != nil {
		return err
	}
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("update sim %s on %s: %w", iccid, a.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d updating sim %s on %s", resp.StatusCode, iccid, a.name)
	}
	return nil
}
