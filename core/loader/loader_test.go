package loader_test

import (
	"errors"
	"testing"

	"sim-device-platform/core/loader"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type stubFeature struct {
	name    string
	enabled bool
	loadErr error
	loaded  bool
}

func (f *stubFeature) Name() string    { return f.name }
func (f *stubFeature) IsEnabled() bool { return f.enabled }

func (f *stubFeature) Load(app fiber.Router) error {
	f.loaded = true
	return f.loadErr
}

func TestLoadAll(t *testing.T) {
	app := fiber.New()

	enabled := &stubFeature{name: "devices", enabled: true}
	disabled := &stubFeature{name: "reports", enabled: false}

	mgr := loader.NewManager()
	mgr.Register(enabled)
	mgr.Register(disabled)

	assert.NoError(t, mgr.LoadAll(app))
	assert.True(t, enabled.loaded)
	assert.False(t, disabled.loaded)
}

func TestLoadAllPropagatesFailure(t *testing.T) {
	app := fiber.New()

	broken := &stubFeature{name: "reconcile", enabled: true, loadErr: errors.New("route clash")}

	mgr := loader.NewManager()
	mgr.Register(broken)

	err := mgr.LoadAll(app)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "reconcile")
}
