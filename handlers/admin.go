package handlers

import (
	"genesis-intake/middleware"
	"genesis-intake/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, admin *services.AdminService, token string) {
	// 🔐 Bearer token on everything below /api/admin, checked before method or route
	secured := app.Group("/api/admin", middleware.AdminAuthMiddleware(token))

	secured.Get("/pending", admin.GetPending)
	secured.Get("/stats", admin.GetStats)
	secured.Get("/leaderboard", admin.GetLeaderboard)
	secured.Get("/dashboard", admin.GetDashboard)
	secured.Get("/referrals/:referral_id", admin.GetReferralStats)

	// Read-only surface: anything else is a wrong method or an unknown query.
	secured.All("/*", func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return methodNotAllowed(c)
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Not found",
		})
	})
}
