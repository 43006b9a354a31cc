package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sim-device-platform/core/entity"
	"sim-device-platform/core/provider"

	"github.com/stretchr/testify/assert"
)

func newAdapter(srv *httptest.Server) *provider.RESTAdapter {
	return provider.NewRESTAdapter("teltonika", provider.RESTConfig{
		Enabled: true,
		BaseURL: srv.URL,
		ApiKey:  "secret",
	})
}

func TestRESTAdapterFetchInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inventory", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		json.NewEncoder(w).Encode(provider.Inventory{
			Devices: []provider.DeviceRecord{
				{DeviceID: "dev-1", Oem: entity.OemTeltonika, Model: "FMB920", IsActive: true},
			},
			Complete: true,
		})
	}))
	defer srv.Close()

	inv, err := newAdapter(srv).FetchInventory(context.Background())
	assert.NoError(t, err)
	assert.Len(t, inv.Devices, 1)
	assert.Equal(t, "dev-1", inv.Devices[0].DeviceID)
	assert.False(t, inv.FetchedAt.IsZero())
}

func TestRESTAdapterFetchInventoryBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newAdapter(srv).FetchInventory(context.Background())
	assert.Error(t, err)
	assert.ErrorContains(t, err, "502")
}

func TestRESTAdapterFetchHeartbeats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/heartbeats", r.URL.Path)
		assert.Equal(t, "dev-1,dev-2", r.URL.Query().Get("ids"))

		json.NewEncoder(w).Encode([]provider.Heartbeat{
			{DeviceID: "dev-1", Status: "online"},
		})
	}))
	defer srv.Close()

	beats, err := newAdapter(srv).FetchHeartbeats(context.Background(), []string{"dev-1", "dev-2"})
	assert.NoError(t, err)
	assert.Len(t, beats, 1)
	assert.Equal(t, "dev-1", beats[0].DeviceID)
}

func TestRESTAdapterFetchHeartbeatsNoIDs(t *testing.T) {
	// No request must be issued for an empty id list.
	adapter := provider.NewRESTAdapter("teltonika", provider.RESTConfig{BaseURL: "http://127.0.0.1:1"})

	beats, err := adapter.FetchHeartbeats(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, beats)
}

func TestRESTAdapterHealthy(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	adapter := newAdapter(srv)

	ok, err := adapter.Healthy(context.Background())
	assert.NoError(t, err)
	assert.True(t, ok)

	healthy = false
	ok, err = adapter.Healthy(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestSimPlatformAdapter(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sims" {
			json.NewEncoder(w).Encode([]provider.SimRecord{
				{Iccid: "8944", Status: "Active", Tags: []string{"fleet-a"}},
			})
			return
		}

		gotMethod = r.Method
		gotPath = r.URL.Path
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b, _ := json.Marshal(body)
		gotBody = string(b)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	adapter := provider.NewSimPlatformAdapter("simplatform", provider.RESTConfig{BaseURL: srv.URL})

	sims, err := adapter.FetchSims(context.Background())
	assert.NoError(t, err)
	assert.Len(t, sims, 1)
	assert.Equal(t, "8944", sims[0].Iccid)

	assert.NoError(t, adapter.UpdateSimDescription(context.Background(), "8944", "pump station 7"))
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/sims/8944", gotPath)
	assert.Contains(t, gotBody, "pump station 7")

	assert.NoError(t, adapter.UpdateSimTags(context.Background(), "8944", []string{"vip"}))
	assert.Contains(t, gotBody, "vip")
}
