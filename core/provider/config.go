package provider

import (
	"sim-device-platform/core/storage"
)

// RESTConfig holds connection settings for one REST provider slot.
type RESTConfig struct {
	// Enabled toggles registration of this provider.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// BaseURL is the root of the provider's API.
	BaseURL string `mapstructure:"base_url" default:""`
	// ApiKey is sent as X-API-Key on every request.
	ApiKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds bounds every HTTP call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
}

// SnapshotConfig holds settings for the storage-backed snapshot slot.
type SnapshotConfig struct {
	// Enabled toggles registration of the snapshot provider.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// ObjectName is the inventory JSON object in the storage bucket.
	ObjectName string `mapstructure:"object_name" default:"snapshots/inventory.json"`
}

// Config holds the fixed provider slots. Each upstream source gets its own
// section so credentials can be set independently via the environment.
type Config struct {
	// DigitalMatter is the DigitalMatter device feed.
	DigitalMatter RESTConfig `mapstructure:"digitalmatter"`
	// Teltonika is the Teltonika device feed.
	Teltonika RESTConfig `mapstructure:"teltonika"`
	// SimPlatform is the SIM-platform feed with the extended capability.
	SimPlatform RESTConfig `mapstructure:"simplatform"`
	// Snapshot is the storage-backed bulk inventory feed.
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
}

// NewRegistryFromConfig builds a registry with every enabled provider slot.
func NewRegistryFromConfig(cfg Config, client storage.Client, bucket string) *Registry {
	registry := NewRegistry()

	if cfg.DigitalMatter.Enabled {
		registry.Register(NewRESTAdapter("digitalmatter", cfg.DigitalMatter))
	}
	if cfg.Teltonika.Enabled {
		registry.Register(NewRESTAdapter("teltonika", cfg.Teltonika))
	}
	if cfg.SimPlatform.Enabled {
		registry.Register(NewSimPlatformAdapter("simplatform", cfg.SimPlatform))
	}
	if cfg.Snapshot.Enabled && client != nil {
		registry.Register(NewSnapshotAdapter("snapshot", client, bucket, cfg.Snapshot.ObjectName))
	}

	return registry
}
