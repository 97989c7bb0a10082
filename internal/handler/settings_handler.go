package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// SettingsHandler serves the generation configuration endpoints.
type SettingsHandler struct {
	service   *service.SettingsService
	validator *validator.Validate
}

func NewSettingsHandler(svc *service.SettingsService, v *validator.Validate) *SettingsHandler {
	return &SettingsHandler{
		service:   svc,
		validator: v,
	}
}

// Get handles GET /api/settings. Credentials come back masked.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.service.Get(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, service.Masked(settings))
}

// Put handles PUT /api/settings with the full settings document.
func (h *SettingsHandler) Put(c *fiber.Ctx) error {
	var settings model.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&settings.Customization); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}
	if err := h.service.Save(c.Context(), middleware.GetUserID(c), settings); err != nil {
		return response.ValidationError(c, err.Error(), nil)
	}
	return response.OK(c, service.Masked(settings))
}

// VerifyKeyRequest names one credential to verify.
type VerifyKeyRequest struct {
	Provider model.Provider `json:"provider" validate:"required,oneof=groq gemini openai"`
	Key      string         `json:"key" validate:"required"`
}

// VerifyKey handles POST /api/settings/keys/verify.
func (h *SettingsHandler) VerifyKey(c *fiber.Ctx) error {
	var req VerifyKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	valid := h.service.VerifyKey(c.Context(), req.Provider, req.Key)
	return response.OK(c, fiber.Map{"valid": valid})
}
