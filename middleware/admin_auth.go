// middleware/admin_auth.go
package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminAuthMiddleware requires "Authorization: Bearer <token>". An empty token
// locks the admin surface entirely.
func AdminAuthMiddleware(token string) fiber.Handler {
	if token == "" {
		zap.L().Warn("⚠️  ADMIN_TOKEN is not set; every admin request will be rejected")
	}
	expected := []byte("Bearer " + token)

	return func(c *fiber.Ctx) error {
		// Preflight is answered by CORS before auth.
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		got := []byte(c.Get(fiber.HeaderAuthorization))
		if token == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
			zap.L().Warn("🚫 [ADMIN_AUTH] rejected",
				zap.String("path", c.Path()),
				zap.Bool("header_present", len(got) > 0),
				zap.String("request_id", RequestID(c)))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized",
			})
		}
		return c.Next()
	}
}
