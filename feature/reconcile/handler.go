package reconcile

import (
	"time"

	"sim-device-platform/core/audit"
	"sim-device-platform/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the reconciliation, health, and audit operator surface.
type Handler struct {
	engine *Engine
	audit  *audit.Service
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(engine *Engine, auditSvc *audit.Service, log *zap.Logger) *Handler {
	return &Handler{engine: engine, audit: auditSvc, logger: log}
}

// RegisterRoutes registers the reconcile routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconcile")
	group.Post("/run", h.HandleRun)
	group.Get("/health", h.HandleHealth)

	app.Get("/audit/events", h.HandleAuditEvents)
}

// HandleRun triggers a synchronous reconciliation run.
// @Summary Run reconciliation
// @Description Fetches all provider inventories and reconciles the entity store.
// @Tags reconcile
// @Produce json
// @Param forceRefresh query bool false "Bypass batch caching"
// @Success 200 {object} reconcile.Result
// @Failure 400 {object} map[string]interface{}
// @Router /reconcile/run [post]
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	result, err := h.engine.Run(c.Context(), c.QueryBool("forceRefresh"))
	if err != nil {
		l.Error("Reconciliation run failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  result.Error,
			"result": result,
		})
	}
	return c.JSON(result)
}

// HandleHealth reports provider, database, and queue health.
// @Summary System health
// @Tags reconcile
// @Produce json
// @Success 200 {object} reconcile.SystemHealthStatus
// @Router /reconcile/health [get]
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(h.engine.Health(c.Context()))
}

// HandleAuditEvents lists recorded audit events, newest first.
// @Summary List audit events
// @Tags audit
// @Produce json
// @Param subjectType query string false "Subject type filter"
// @Param subjectId query string false "Subject id filter"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param page query int false "1-indexed page"
// @Param pageSize query int false "Page size"
// @Success 200 {array} entity.AuditEvent
// @Failure 500 {object} map[string]string
// @Router /audit/events [get]
func (h *Handler) HandleAuditEvents(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	q := audit.Query{
		SubjectType: c.Query("subjectType"),
		SubjectID:   c.Query("subjectId"),
		Page:        c.QueryInt("page", 1),
		PageSize:    c.QueryInt("pageSize", 50),
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid from timestamp"})
		}
		q.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid to timestamp"})
		}
		q.To = &ts
	}

	events, err := h.audit.Events(c.Context(), q)
	if err != nil {
		l.Error("Audit event listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.JSON(events)
}
