package reports

import (
	"fmt"

	"sim-device-platform/core/entity"
	"sim-device-platform/core/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for report generation and retrieval.
type Handler struct {
	generator *Generator
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(generator *Generator, log *zap.Logger) *Handler {
	return &Handler{generator: generator, logger: log}
}

// RegisterRoutes registers the reports routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reports")
	group.Get("/", h.HandleList)
	group.Get("/types", h.HandleTypes)
	group.Post("/generate", h.HandleGenerate)
	group.Get("/:id/download", h.HandleDownload)
}

type generateRequest struct {
	Type entity.ReportType `json:"type"`
}

type generateResponse struct {
	Report      *entity.Report `json:"report"`
	DownloadURL string         `json:"downloadUrl"`
}

// HandleGenerate generates a report synchronously.
// @Summary Generate report
// @Tags reports
// @Accept json
// @Produce json
// @Param request body reports.generateRequest true "Report type"
// @Success 200 {object} reports.generateResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]interface{}
// @Router /reports/generate [post]
func (h *Handler) HandleGenerate(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if _, ok := definitionFor(req.Type); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": fmt.Sprintf("unknown report type %q", req.Type)})
	}

	report, err := h.generator.Generate(c.Context(), req.Type)
	if err != nil {
		l.Error("Report generation failed", zap.String("type", string(req.Type)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":  "report generation failed",
			"report": report,
		})
	}

	return c.JSON(generateResponse{
		Report:      report,
		DownloadURL: fmt.Sprintf("/reports/%s/download", report.ReportID),
	})
}

// HandleDownload streams a completed report artifact.
// @Summary Download report artifact
// @Tags reports
// @Produce text/csv
// @Param id path string true "Report id"
// @Success 200 {string} string "CSV artifact"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reports/{id}/download [get]
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid report id"})
	}

	report, body, err := h.generator.Download(c.Context(), id)
	if err != nil {
		l.Warn("Report download failed", zap.String("report_id", id.String()), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "report not available"})
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s-%s.csv"`, report.Type, report.ReportID))
	return c.SendStream(body, int(report.FileSizeBytes))
}

// HandleTypes returns the report catalog.
// @Summary List report types
// @Tags reports
// @Produce json
// @Success 200 {array} reports.Definition
// @Router /reports/types [get]
func (h *Handler) HandleTypes(c *fiber.Ctx) error {
	return c.JSON(Catalog())
}

// HandleList lists generated reports, newest first.
// @Summary List reports
// @Tags reports
// @Produce json
// @Param page query int false "1-indexed page"
// @Param pageSize query int false "Page size"
// @Success 200 {array} entity.Report
// @Failure 500 {object} map[string]string
// @Router /reports [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	list, err := h.generator.List(c.Context(), c.QueryInt("page", 1), c.QueryInt("pageSize", 50))
	if err != nil {
		l.Error("Report listing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.JSON(list)
}
