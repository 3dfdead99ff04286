package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/models"
	"print-bridge/internal/queue"
)

// ListRestaurants handles GET /api/restaurants.
func (h *Handler) ListRestaurants(c *fiber.Ctx) error {
	restaurants, err := h.dir.List(c.UserContext())
	if err != nil {
		return h.fail(c, fmt.Errorf("%w: %w", queue.ErrUnavailable, err))
	}

	data := make([]models.RestaurantResponse, 0, len(restaurants))
	for _, r := range restaurants {
		data = append(data, models.ToRestaurantResponse(r))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
