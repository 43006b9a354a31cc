package devices_test

import (
	"net/http/httptest"
	"testing"

	"sim-device-platform/feature/devices"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	svc, db := newTestService(t)
	seedDevice(t, db, "dev-1")

	app := fiber.New()
	devices.NewHandler(svc).RegisterRoutes(app)
	return app
}

func TestHandleGetDevices(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/devices?hasSim=false", nil))
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleGetDevicesRejectsMalformedBool(t *testing.T) {
	app := newTestApp(t)

	for _, target := range []string{
		"/devices?hasSim=banana",
		"/devices?hasAsset=2",
	} {
		resp, err := app.Test(httptest.NewRequest("GET", target, nil))
		assert.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, target)
	}
}
