package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// EnsurePlayerID reads the player id from the X-Player-ID header or the
// playerId query parameter and stores it in locals.
func EnsurePlayerID(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Check if playerID is already set
		if c.Locals("playerID") != nil {
			return c.Next()
		}

		// Check header first
		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			playerID = c.Query("playerId")
		}

		if playerID == "" {
			logger.Debug("request without player id", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}

		// Sessions keep the id, so it must not alias the request buffer.
		c.Locals("playerID", utils.CopyString(playerID))
		return c.Next()
	}
}
