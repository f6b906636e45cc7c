package handlers

import (
	"errors"

	"genesis-intake/metrics"
	"genesis-intake/middleware"
	"genesis-intake/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// ServiceName is reported by /health.
const ServiceName = "genesis-intake"

// Dependencies are the services the HTTP surface is built from.
type Dependencies struct {
	Intake     *services.IntakeService
	Admin      *services.AdminService
	AdminToken string
	Metrics    *metrics.Metrics
	PublicDir  string
}

// NewApp builds the Fiber app with every route registered.
func NewApp(deps Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		BodyLimit:             1 * 1024 * 1024, // 1MB
		DisableStartupMessage: true,
		ErrorHandler:          jsonErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestContextMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "authorization, content-type",
		MaxAge:       86400, // 24 hours
	}))

	// Preflight without Access-Control-Request-Method still gets an empty 204.
	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	SetupSystemRoutes(app, deps.Metrics)
	SetupIntakeRoutes(app, deps.Intake)
	SetupAdminRoutes(app, deps.Admin, deps.AdminToken)
	SetupStaticRoutes(app, deps.PublicDir)

	return app
}

func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
		if code == fiber.StatusNotFound {
			msg = "Not found"
		}
	}
	return c.Status(code).JSON(fiber.Map{"success": false, "error": msg})
}

func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"success": false,
		"error":   "Method not allowed",
	})
}
