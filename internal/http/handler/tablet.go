package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/crypto/bcrypt"

	"print-bridge/internal/config"
	"print-bridge/internal/http/middleware"
	"print-bridge/internal/queue"
)

type tabletLoginRequest struct {
	RestaurantID string `json:"restaurantId"`
	PairingCode  string `json:"pairingCode"`
}

// TabletLogin handles POST /tablet/login: a tablet trades its restaurant's
// pairing code for a bearer token scoped to that restaurant.
func (h *Handler) TabletLogin(c *fiber.Ctx) error {
	var req tabletLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	req.RestaurantID = strings.TrimSpace(req.RestaurantID)
	if req.RestaurantID == "" || req.PairingCode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "restaurantId and pairingCode are required",
		})
	}

	restaurant, err := h.lookupRestaurant(c.UserContext(), req.RestaurantID)
	if err != nil && !errors.Is(err, queue.ErrUnknownRestaurant) {
		return h.fail(c, err)
	}

	if err != nil || restaurant.PairingHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(restaurant.PairingHash), []byte(req.PairingCode)) != nil {
		h.log.Warn().Str("restaurant_id", req.RestaurantID).Msg("tablet pairing rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid restaurant or pairing code",
		})
	}

	token, expiresAt, err := config.GenerateTabletToken(h.jwtSecret, restaurant.ID, h.tokenTTL)
	if err != nil {
		return h.fail(c, err)
	}

	h.log.Info().Str("restaurant_id", restaurant.ID).Msg("tablet paired")
	return c.JSON(fiber.Map{
		"success":    true,
		"token":      token,
		"expiresAt":  expiresAt,
		"restaurant": restaurant.Name,
	})
}

// UpgradeTablet rejects plain HTTP requests on the websocket route.
func UpgradeTablet(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// TabletSocket handles GET /ws/tablet once TabletAuth and UpgradeTablet passed.
func (h *Handler) TabletSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		restaurantID, _ := conn.Locals(middleware.LocalRestaurantID).(string)
		h.hub.Serve(restaurantID, conn)
	})
}
