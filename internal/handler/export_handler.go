package handler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/export"
	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// ExportHandler streams the finished batch as CSV or XLSX downloads.
type ExportHandler struct {
	sessions *service.SessionService
	settings *service.SettingsService
}

func NewExportHandler(sessions *service.SessionService, settings *service.SettingsService) *ExportHandler {
	return &ExportHandler{
		sessions: sessions,
		settings: settings,
	}
}

// Standard handles GET /api/export/standard.
func (h *ExportHandler) Standard(c *fiber.Ctx) error {
	return h.serve(c, "metadata_standard.csv", "text/csv", export.WriteStandardCSV)
}

// Adobe handles GET /api/export/adobe.
func (h *ExportHandler) Adobe(c *fiber.Ctx) error {
	return h.serve(c, "metadata_adobe_stock.csv", "text/csv", export.WriteAdobeCSV)
}

// XLSX handles GET /api/export/xlsx.
func (h *ExportHandler) XLSX(c *fiber.Ctx) error {
	return h.serve(c, "metadata.xlsx",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.WriteXLSX)
}

func (h *ExportHandler) serve(c *fiber.Ctx, filename, contentType string, write func(io.Writer, []model.BatchItem, model.CustomizationConfig) error) error {
	userID := middleware.GetUserID(c)
	sess := h.sessions.Session(userID)

	settings, err := h.settings.Get(c.Context(), userID)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	var buf bytes.Buffer
	if err := write(&buf, sess.Store.Items(), settings.Customization); err != nil {
		return response.ServiceError(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}
