package reports

import (
	"sim-device-platform/core/audit"
	"sim-device-platform/core/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	generator *Generator
	handler   *Handler
}

// NewFeature creates a new Reports feature.
func NewFeature(db *gorm.DB, logger *zap.Logger, client storage.Client, bucket string, recorder audit.Recorder) *Feature {
	gen := NewGenerator(db, logger, client, bucket, recorder)
	h := NewHandler(gen, logger)
	return &Feature{generator: gen, handler: h}
}

// Generator exposes the report generator for the CLI.
func (f *Feature) Generator() *Generator {
	return f.generator
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reports"
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
