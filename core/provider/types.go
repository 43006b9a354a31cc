package provider

import (
	"context"
	"time"

	"sim-device-platform/core/entity"
)

// Adapter is the capability set every upstream provider exposes:
// inventory snapshots, liveness heartbeats, and a health check.
type Adapter interface {
	// Name returns the unique provider name (e.g., "digitalmatter").
	Name() string

	// FetchInventory returns the provider's current device/SIM snapshot.
	FetchInventory(ctx context.Context) (*Inventory, error)

	// FetchHeartbeats returns last-seen timestamps for the given device ids.
	// Providers without liveness data return an empty slice.
	FetchHeartbeats(ctx context.Context, ids []string) ([]Heartbeat, error)

	// Healthy reports whether the provider is currently reachable.
	Healthy(ctx context.Context) (bool, error)
}

// SimPlatform is the optional extended capability of SIM-platform sources.
type SimPlatform interface {
	Adapter

	// FetchSims returns the platform's full SIM inventory.
	FetchSims(ctx context.Context) ([]SimRecord, error)

	// UpdateSimDescription pushes a description change upstream.
	UpdateSimDescription(ctx context.Context, iccid, description string) error

	// UpdateSimTags pushes a tag set change upstream.
	UpdateSimTags(ctx context.Context, iccid string, tags []string) error
}

// Inventory is one provider snapshot.
type Inventory struct {
	Devices   []DeviceRecord `json:"devices"`
	Sims      []SimRecord    `json:"sims"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Complete  bool           `json:"complete"`
}

// DeviceRecord is a device as reported by a provider feed.
type DeviceRecord struct {
	DeviceID    string     `json:"deviceId"`
	Oem         entity.Oem `json:"oem"`
	Model       string     `json:"model"`
	Imei        string     `json:"imei"`
	Serial      string     `json:"serial"`
	Account     string     `json:"account"`
	IsActive    bool       `json:"isActive"`
	ActiveTo    *time.Time `json:"activeTo"`
	ProviderRef string     `json:"providerRef"`
}

// SimRecord is a SIM as reported by a provider feed.
type SimRecord struct {
	Iccid       string   `json:"iccid"`
	Msisdn      string   `json:"msisdn"`
	Status      string   `json:"status"`
	Carrier     string   `json:"carrier"`
	AccountID   string   `json:"accountId"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Heartbeat is one liveness observation for a device.
type Heartbeat struct {
	DeviceID   string    `json:"deviceId"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	Status     string    `json:"status"`
}
