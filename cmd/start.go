package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"sim-device-platform/core/audit"
	"sim-device-platform/core/config"
	"sim-device-platform/core/database"
	"sim-device-platform/core/entity"
	"sim-device-platform/core/loader"
	"sim-device-platform/core/logger"
	"sim-device-platform/core/middleware/auth"
	"sim-device-platform/core/middleware/rayid"
	"sim-device-platform/core/provider"
	"sim-device-platform/core/storage"

	"sim-device-platform/feature/devices"
	"sim-device-platform/feature/reconcile"
	"sim-device-platform/feature/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title SIM/Device Platform API
// @version 1.0
// @description API for reconciling and linking devices, SIMs, and assets.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the platform server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database and migrate
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := entity.Migrate(db); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// 4. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// 5. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 6. Provider registry and shared services
		registry := provider.NewRegistryFromConfig(cfg.Providers, store, cfg.Storage.Bucket)
		auditSvc := audit.NewService(db, logg)

		// 7. Register Features
		mgr := loader.NewManager()
		devicesFeature := devices.NewFeature(db, logg, auditSvc, registry.SimPlatform())
		mgr.Register(devicesFeature)
		mgr.Register(reconcile.NewFeature(db, logg, registry, devicesFeature.Service(), auditSvc))
		mgr.Register(reports.NewFeature(db, logg, store, cfg.Storage.Bucket, auditSvc))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 2.5 Swagger Documentation (Public)
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// Load Features
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
