package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/dto"
	"ledgerlens/internal/service"
)

type ReportHandler struct {
	analyticsService *service.AnalyticsService
	logger           *zap.Logger
}

func NewReportHandler(analyticsService *service.AnalyticsService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// ListReports godoc
// @Summary List available reports
// @Description Get the names of all reports in the catalog
// @Tags reports
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ReportListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/reports [get]
func (h *ReportHandler) ListReports(c *fiber.Ctx) error {
	return c.JSON(dto.ReportListResponse{
		Reports: h.analyticsService.Names(),
	})
}

// RunReport godoc
// @Summary Run a report
// @Description Compute one named report over all stored records
// @Tags reports
// @Produce json
// @Param name path string true "Report name"
// @Security Bearer
// @Success 200 {object} analytics.Table
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/reports/{name} [get]
func (h *ReportHandler) RunReport(c *fiber.Ctx) error {
	name := c.Params("name")

	table, err := h.analyticsService.Run(c.Context(), name)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownReport) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown report: " + name,
			})
		}
		h.logger.Error("Failed to run report", zap.String("report", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to run report",
		})
	}

	return c.JSON(table)
}

// ListRecords godoc
// @Summary List canonical records
// @Description Get all stored canonical records
// @Tags records
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.RecordListResponse
// @Failure 401 {object} map[string]string
// @Router /api/v1/records [get]
func (h *ReportHandler) ListRecords(c *fiber.Ctx) error {
	records, err := h.analyticsService.ListRecords(c.Context())
	if err != nil {
		h.logger.Error("Failed to list records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list records",
		})
	}

	return c.JSON(dto.RecordListResponse{
		Records: records,
		Total:   len(records),
	})
}

// SearchRecords godoc
// @Summary Search records
// @Description Plain-text search over raw document text, vendor, notes and invoice number
// @Tags records
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Limit" default(20)
// @Security Bearer
// @Success 200 {object} dto.RecordListResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/v1/records/search [get]
func (h *ReportHandler) SearchRecords(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	limit := c.QueryInt("limit", 20)

	records, err := h.analyticsService.SearchRecords(c.Context(), query, limit)
	if err != nil {
		h.logger.Error("Failed to search records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search records",
		})
	}

	return c.JSON(dto.RecordListResponse{
		Records: records,
		Total:   len(records),
	})
}
