package handler

import (
	"errors"
	"io"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/ingest"
	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// AssetHandler serves batch item upload and lifecycle endpoints.
type AssetHandler struct {
	sessions *service.SessionService
	ingestor *ingest.Ingestor
}

func NewAssetHandler(sessions *service.SessionService, ingestor *ingest.Ingestor) *AssetHandler {
	return &AssetHandler{
		sessions: sessions,
		ingestor: ingestor,
	}
}

// Upload handles POST /api/assets with multipart "files" parts.
func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))

	form, err := c.MultipartForm()
	if err != nil {
		return response.ValidationError(c, "Expected multipart form upload", nil)
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return response.ValidationError(c, "No files in upload", nil)
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			log.Printf("Failed to open upload %s: %v", fh.Filename, err)
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			log.Printf("Failed to read upload %s: %v", fh.Filename, err)
			continue
		}
		files = append(files, ingest.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	added, err := h.ingestor.AddFiles(c.Context(), sess.ID, sess.Store, files)
	if err != nil {
		if errors.Is(err, ingest.ErrBatchLimit) {
			return response.BatchLimit(c, "Batch size limit exceeded")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, fiber.Map{
		"added":      added,
		"skipped":    len(files) - added,
		"items":      itemViews(sess),
		"selectedId": sess.Store.Selected(),
	})
}

// List handles GET /api/assets.
func (h *AssetHandler) List(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	return response.OK(c, fiber.Map{
		"items":      itemViews(sess),
		"selectedId": sess.Store.Selected(),
	})
}

// Preview handles GET /api/assets/:id/preview, serving the item's JPEG still.
func (h *AssetHandler) Preview(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	item, ok := sess.Store.Get(c.Params("id"))
	if !ok {
		return response.NotFound(c, "Item not found")
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(item.Preview)
}

// Select handles PUT /api/assets/:id/select, moving the UI focus pointer.
func (h *AssetHandler) Select(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	if _, ok := sess.Store.Get(c.Params("id")); !ok {
		return response.NotFound(c, "Item not found")
	}
	sess.Store.Select(c.Params("id"))
	return response.OK(c, fiber.Map{"selectedId": sess.Store.Selected()})
}

// Remove handles DELETE /api/assets/:id.
func (h *AssetHandler) Remove(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))
	if !sess.Store.Remove(c.Params("id")) {
		return response.NotFound(c, "Item not found")
	}
	return response.NoContent(c)
}

// Clear handles DELETE /api/assets. The confirm query parameter stands in
// for the destructive-action confirmation step.
func (h *AssetHandler) Clear(c *fiber.Ctx) error {
	if c.Query("confirm") != "true" {
		return response.ValidationError(c, "Clearing all assets requires confirm=true", nil)
	}
	sess := h.sessions.Session(middleware.GetUserID(c))
	sess.Store.Clear()
	return response.NoContent(c)
}
