package handler

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/batch"
	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// MetadataHandler serves the per-item editing surface: transient field
// updates, snapshot commits, and undo/redo.
type MetadataHandler struct {
	sessions  *service.SessionService
	validator *validator.Validate
}

func NewMetadataHandler(sessions *service.SessionService, v *validator.Validate) *MetadataHandler {
	return &MetadataHandler{
		sessions:  sessions,
		validator: v,
	}
}

// UpdateFieldRequest carries one metadata field edit. Value is raw JSON so
// keywords can be an array while the other fields are strings.
type UpdateFieldRequest struct {
	Field string          `json:"field" validate:"required,oneof=title description keywords category"`
	Value json.RawMessage `json:"value" validate:"required"`
}

// UpdateField handles PATCH /api/assets/:id/metadata. No snapshot is taken;
// keystroke-level edits coalesce until Snapshot is called.
func (h *MetadataHandler) UpdateField(c *fiber.Ctx) error {
	var req UpdateFieldRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	var value any
	if req.Field == batch.FieldKeywords {
		var keywords []string
		if err := json.Unmarshal(req.Value, &keywords); err != nil {
			return response.ValidationError(c, "Keywords must be an array of strings", nil)
		}
		value = keywords
	} else {
		var text string
		if err := json.Unmarshal(req.Value, &text); err != nil {
			return response.ValidationError(c, "Value must be a string", nil)
		}
		value = text
	}

	sess := h.sessions.Session(middleware.GetUserID(c))
	if !sess.Store.UpdateField(c.Params("id"), req.Field, value) {
		return response.NotFound(c, "Item not found")
	}
	item, _ := sess.Store.Get(c.Params("id"))
	return response.OK(c, itemView(sess.Store, item))
}

// Snapshot handles POST /api/assets/:id/snapshot.
func (h *MetadataHandler) Snapshot(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	if !sess.Store.Snapshot(c.Params("id")) {
		return response.NotFound(c, "Item not found")
	}
	item, _ := sess.Store.Get(c.Params("id"))
	return response.OK(c, itemView(sess.Store, item))
}

// Undo handles POST /api/assets/:id/undo. A no-op at the oldest entry.
func (h *MetadataHandler) Undo(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	item, ok := sess.Store.Get(c.Params("id"))
	if !ok {
		return response.NotFound(c, "Item not found")
	}
	sess.Store.Undo(item.ID)
	item, _ = sess.Store.Get(item.ID)
	return response.OK(c, itemView(sess.Store, item))
}

// Redo handles POST /api/assets/:id/redo. A no-op at the newest entry.
func (h *MetadataHandler) Redo(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	item, ok := sess.Store.Get(c.Params("id"))
	if !ok {
		return response.NotFound(c, "Item not found")
	}
	sess.Store.Redo(item.ID)
	item, _ = sess.Store.Get(item.ID)
	return response.OK(c, itemView(sess.Store, item))
}
