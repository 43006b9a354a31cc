package devices

import (
	"sim-device-platform/core/audit"
	"sim-device-platform/core/provider"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Devices feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, recorder audit.Recorder, simPlatform provider.SimPlatform) *Feature {
	svc := NewService(db, logger, recorder, simPlatform)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service exposes the linking service for other features.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "devices"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
