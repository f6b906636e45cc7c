package handlers

import (
	"genesis-intake/services"

	"github.com/gofiber/fiber/v2"
)

func SetupIntakeRoutes(app *fiber.App, intake *services.IntakeService) {
	// 🔓 Public registration form
	app.Post("/api/submit", intake.HandleSubmit)
	app.All("/api/submit", methodNotAllowed)
}
