package provider_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"sim-device-platform/core/provider"
	"sim-device-platform/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type stubAdapter struct {
	name     string
	fetchErr error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) FetchInventory(ctx context.Context) (*provider.Inventory, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &provider.Inventory{
		Devices: []provider.DeviceRecord{{DeviceID: s.name + "-dev"}},
	}, nil
}

func (s *stubAdapter) FetchHeartbeats(ctx context.Context, ids []string) ([]provider.Heartbeat, error) {
	return nil, nil
}

func (s *stubAdapter) Healthy(ctx context.Context) (bool, error) { return true, nil }

func TestRegistryFetchAll(t *testing.T) {
	registry := provider.NewRegistry(
		&stubAdapter{name: "a"},
		&stubAdapter{name: "b", fetchErr: errors.New("down")},
		&stubAdapter{name: "c"},
	)

	results := registry.FetchAll(context.Background())
	assert.Len(t, results, 3)

	// Results keep registration order regardless of completion order.
	assert.Equal(t, "a", results[0].Provider)
	assert.Equal(t, "b", results[1].Provider)
	assert.Equal(t, "c", results[2].Provider)

	// One failing adapter never hides the others' inventories.
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "c-dev", results[2].Inventory.Devices[0].DeviceID)
	assert.False(t, results[0].Inventory.FetchedAt.IsZero())
}

func TestRegistrySimPlatform(t *testing.T) {
	plain := &stubAdapter{name: "plain"}
	sp := provider.NewSimPlatformAdapter("simplatform", provider.RESTConfig{BaseURL: "http://127.0.0.1:1"})

	registry := provider.NewRegistry(plain)
	assert.Nil(t, registry.SimPlatform())

	registry.Register(sp)
	got := registry.SimPlatform()
	assert.NotNil(t, got)
	assert.Equal(t, "simplatform", got.Name())
}

func TestSnapshotAdapter(t *testing.T) {
	snapshot := `{"devices":[{"deviceId":"dev-1","oem":"Teltonika","isActive":true}],"sims":[],"complete":true}`

	mockClient := new(mocks.Client)
	mockClient.On("GetObject", mock.Anything, "sim-platform", "snapshots/inventory.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(snapshot)), nil)

	adapter := provider.NewSnapshotAdapter("snapshot", mockClient, "sim-platform", "snapshots/inventory.json")

	inv, err := adapter.FetchInventory(context.Background())
	assert.NoError(t, err)
	assert.True(t, inv.Complete)
	assert.Len(t, inv.Devices, 1)
	assert.Equal(t, "dev-1", inv.Devices[0].DeviceID)

	beats, err := adapter.FetchHeartbeats(context.Background(), []string{"dev-1"})
	assert.NoError(t, err)
	assert.Empty(t, beats)

	mockClient.AssertExpectations(t)
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := provider.Config{
		Teltonika:   provider.RESTConfig{Enabled: true, BaseURL: "http://tel.example"},
		SimPlatform: provider.RESTConfig{Enabled: true, BaseURL: "http://sim.example"},
		Snapshot:    provider.SnapshotConfig{Enabled: true, ObjectName: "snapshots/inventory.json"},
	}

	registry := provider.NewRegistryFromConfig(cfg, new(mocks.Client), "sim-platform")
	assert.Len(t, registry.Adapters(), 3)
	assert.NotNil(t, registry.SimPlatform())

	names := make([]string, 0, 3)
	for _, a := range registry.Adapters() {
		names = append(names, a.Name())
	}
	assert.Equal(t, []string{"teltonika", "simplatform", "snapshot"}, names)
}
