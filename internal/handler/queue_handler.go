package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/stockmeta/api/internal/middleware"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/scheduler"
	"github.com/stockmeta/api/internal/service"
	"github.com/stockmeta/api/pkg/response"
)

// QueueHandler serves the scheduler's start/stop/regenerate surface.
type QueueHandler struct {
	sessions *service.SessionService
}

func NewQueueHandler(sessions *service.SessionService) *QueueHandler {
	return &QueueHandler{sessions: sessions}
}

// Start handles POST /api/queue/start.
func (h *QueueHandler) Start(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.sessions.StartQueue(c.Context(), userID); err != nil {
		return queueError(c, err)
	}
	return response.Accepted(c, fiber.Map{"processing": true})
}

// Stop handles POST /api/queue/stop. The in-flight generation finishes;
// remaining items stay pending.
func (h *QueueHandler) Stop(c *fiber.Ctx) error {
	stopped := h.sessions.StopQueue(middleware.GetUserID(c))
	return response.OK(c, fiber.Map{"stopped": stopped})
}

// Regenerate handles POST /api/queue/regenerate/:id.
func (h *QueueHandler) Regenerate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if err := h.sessions.Regenerate(c.Context(), userID, c.Params("id")); err != nil {
		return queueError(c, err)
	}
	return response.Accepted(c, fiber.Map{"processing": true})
}

// Status handles GET /api/queue/status.
func (h *QueueHandler) Status(c *fiber.Ctx) error {
	sess := h.sessions.Session(middleware.GetUserID(c))

	counts := make(map[model.ProcessStatus]int)
	for _, it := range sess.Store.Items() {
		counts[it.Status]++
	}

	return response.OK(c, fiber.Map{
		"processing": sess.Runner.IsProcessing(),
		"selectedId": sess.Store.Selected(),
		"total":      sess.Store.Len(),
		"counts":     counts,
	})
}

func queueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, scheduler.ErrQueueBusy):
		return response.QueueBusy(c, "Queue is already processing")
	case errors.Is(err, scheduler.ErrMissingKey):
		return response.MissingKey(c, "No API key configured for the active provider")
	case errors.Is(err, scheduler.ErrNothingToDo):
		return response.NothingToDo(c, "No idle or errored items to process")
	case errors.Is(err, scheduler.ErrInsufficientCredits):
		return response.InsufficientCredits(c, "You do not have enough credits")
	case errors.Is(err, scheduler.ErrItemNotFound):
		return response.NotFound(c, "Item not found")
	default:
		return response.ServiceError(c, err.Error())
	}
}
