package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"print-bridge/internal/config"
)

const LocalRestaurantID = "restaurant_id"

// TabletAuth accepts a tablet token from the Authorization header or, for
// websocket upgrades where browsers cannot set headers, the token query param.
func TabletAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")

		if authHeader := c.Get("Authorization"); authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"error":   "Invalid authorization format",
				})
			}
			token = tokenParts[1]
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Missing authorization header",
			})
		}

		claims, err := config.ValidateTabletToken(secret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid or expired token",
			})
		}

		c.Locals(LocalRestaurantID, claims.RestaurantID)
		return c.Next()
	}
}

// RestaurantID returns the restaurant a tablet token was issued for.
func RestaurantID(c *fiber.Ctx) string {
	rid, _ := c.Locals(LocalRestaurantID).(string)
	return rid
}
