package handler

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Print bridge API running",
	})
}

// Health handles GET /healthz; it fails while the job store is unreachable.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.queue.Ping(c.UserContext()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
