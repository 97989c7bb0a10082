package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// ProfileHandler serves the account profile and credit balance.
type ProfileHandler struct {
	service *service.ProfileService
}

func NewProfileHandler(svc *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get handles GET /api/profile, creating a default free-tier profile on the
// user's first visit.
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.service.Ensure(c.Context(), middleware.GetUserID(c), middleware.GetUserEmail(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	credits, err := h.service.Credits(c.Context(), profile)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{
		"profile": profile,
		"credits": credits,
	})
}
