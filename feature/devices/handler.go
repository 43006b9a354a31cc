package devices

import (
	"strconv"

	"sim-device-platform/core/entity"
	"sim-device-platform/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the unified device view and linking.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the devices routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/devices")
	group.Get("/", h.HandleGetDevices)
	group.Post("/link-sim", h.HandleLinkSim)
	group.Post("/link-asset", h.HandleLinkAsset)
	group.Delete("/unlink-sim", h.HandleUnlinkSim)
	group.Delete("/unlink-asset", h.HandleUnlinkAsset)

	app.Patch("/sims/:iccid", h.HandleUpdateSim)
}

// HandleGetDevices returns the filtered, paginated unified device view.
// @Summary Unified device view
// @Description Joined Device/SIM/Asset projection with filtering and pagination.
// @Tags devices
// @Produce json
// @Param q query string false "Free-text search"
// @Param oem query string false "OEM equality filter"
// @Param status query string false "Status equality filter"
// @Param account query string false "Account equality filter"
// @Param hasAsset query bool false "Presence of a linked asset"
// @Param hasSim query bool false "Presence of a linked SIM"
// @Param page query int false "1-indexed page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} devices.ViewResult
// @Failure 500 {object} map[string]string
// @Router /devices [get]
func (h *Handler) HandleGetDevices(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	hasAsset, err := queryBool(c, "hasAsset")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid hasAsset value"})
	}
	hasSim, err := queryBool(c, "hasSim")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid hasSim value"})
	}

	filter := Filter{
		Search:   c.Query("q"),
		Oem:      entity.Oem(c.Query("oem")),
		Status:   entity.DeviceStatus(c.Query("status")),
		Account:  c.Query("account"),
		HasAsset: hasAsset,
		HasSim:   hasSim,
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	result, err := h.service.UnifiedView(c.Context(), filter)
	if err != nil {
		l.Error("Unified view query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
	return c.JSON(result)
}

type linkSimRequest struct {
	DeviceID   string            `json:"deviceId"`
	Iccid      string            `json:"iccid"`
	Source     entity.LinkSource `json:"source"`
	Confidence float64           `json:"confidence"`
}

// HandleLinkSim links a device to a SIM.
// @Summary Link device to SIM
// @Tags devices
// @Accept json
// @Produce json
// @Param request body devices.linkSimRequest true "Link parameters"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /devices/link-sim [post]
func (h *Handler) HandleLinkSim(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req linkSimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if _, err := h.service.LinkDeviceToSim(c.Context(), req.DeviceID, req.Iccid, req.Source, req.Confidence); err != nil {
		l.Warn("Link device to SIM failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to link device to SIM"})
	}
	return c.JSON(fiber.Map{"message": "device linked to SIM"})
}

type linkAssetRequest struct {
	AssetID    string            `json:"assetId"`
	DeviceID   string            `json:"deviceId"`
	MatchBasis entity.MatchBasis `json:"matchBasis"`
}

// HandleLinkAsset links an asset to a device.
// @Summary Link asset to device
// @Tags devices
// @Accept json
// @Produce json
// @Param request body devices.linkAssetRequest true "Link parameters"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /devices/link-asset [post]
func (h *Handler) HandleLinkAsset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req linkAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if _, err := h.service.LinkAssetToDevice(c.Context(), req.AssetID, req.DeviceID, req.MatchBasis); err != nil {
		l.Warn("Link asset to device failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to link asset to device"})
	}
	return c.JSON(fiber.Map{"message": "asset linked to device"})
}

type unlinkSimRequest struct {
	DeviceID string `json:"deviceId"`
	Iccid    string `json:"iccid"`
}

// HandleUnlinkSim removes a device-SIM link.
// @Summary Unlink device from SIM
// @Tags devices
// @Accept json
// @Produce json
// @Param request body devices.unlinkSimRequest true "Unlink parameters"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /devices/unlink-sim [delete]
func (h *Handler) HandleUnlinkSim(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req unlinkSimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	removed, err := h.service.UnlinkDeviceFromSim(c.Context(), req.DeviceID, req.Iccid)
	if err != nil {
		l.Warn("Unlink device from SIM failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to unlink device from SIM"})
	}
	if !removed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "link not found"})
	}
	return c.JSON(fiber.Map{"message": "device unlinked from SIM"})
}

type unlinkAssetRequest struct {
	AssetID  string `json:"assetId"`
	DeviceID string `json:"deviceId"`
}

// HandleUnlinkAsset removes an asset-device link.
// @Summary Unlink asset from device
// @Tags devices
// @Accept json
// @Produce json
// @Param request body devices.unlinkAssetRequest true "Unlink parameters"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /devices/unlink-asset [delete]
func (h *Handler) HandleUnlinkAsset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req unlinkAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	removed, err := h.service.UnlinkAssetFromDevice(c.Context(), req.AssetID, req.DeviceID)
	if err != nil {
		l.Warn("Unlink asset from device failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to unlink asset from device"})
	}
	if !removed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "link not found"})
	}
	return c.JSON(fiber.Map{"message": "asset unlinked from device"})
}

// HandleUpdateSim updates SIM metadata (description, tags) and pushes the
// change to the SIM platform when one is configured.
// @Summary Update SIM metadata
// @Tags sims
// @Accept json
// @Produce json
// @Param iccid path string true "ICCID"
// @Param request body devices.SimMetadataUpdate true "Fields to update"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /sims/{iccid} [patch]
func (h *Handler) HandleUpdateSim(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var update SimMetadataUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.service.UpdateSimMetadata(c.Context(), c.Params("iccid"), update); err != nil {
		l.Warn("SIM metadata update failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to update SIM metadata"})
	}
	return c.JSON(fiber.Map{"message": "SIM metadata updated"})
}

// queryBool parses an optional boolean query parameter. Absent returns
// (nil, nil); a malformed value is an error so the caller can reject it.
func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
