package reconcile

import (
	"sim-device-platform/core/audit"
	"sim-device-platform/core/provider"
	"sim-device-platform/feature/devices"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	engine  *Engine
	handler *Handler
}

// NewFeature creates a new Reconcile feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, registry *provider.Registry, links *devices.Service, auditSvc *audit.Service) *Feature {
	engine := NewEngine(db, logger, registry, links)
	h := NewHandler(engine, auditSvc, logger)
	return &Feature{engine: engine, handler: h}
}

// Engine exposes the reconciliation engine for the CLI.
func (f *Feature) Engine() *Engine {
	return f.engine
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reconcile"
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
