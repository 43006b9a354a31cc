package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	assert.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "sim-platform", cfg.Storage.Bucket)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Providers.DigitalMatter.Enabled)
	assert.Equal(t, "snapshots/inventory.json", cfg.Providers.Snapshot.ObjectName)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PROVIDERS_TELTONIKA_ENABLED", "true")
	t.Setenv("PROVIDERS_TELTONIKA_BASE_URL", "http://teltonika.local/api")

	cfg, err := LoadConfig(t.TempDir())
	assert.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Providers.Teltonika.Enabled)
	assert.Equal(t, "http://teltonika.local/api", cfg.Providers.Teltonika.BaseURL)
}
