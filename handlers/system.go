package handlers

import (
	"net/http"
	"os"

	"genesis-intake/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func SetupSystemRoutes(app *fiber.App, m *metrics.Metrics) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "operational",
			"service": ServiceName,
		})
	})

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

// SetupStaticRoutes serves the registration and admin pages from dir. It is a
// no-op when dir does not exist.
func SetupStaticRoutes(app *fiber.App, dir string) {
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		zap.L().Warn("⚠️  public dir not found, static pages disabled", zap.String("dir", dir))
		return
	}

	app.Use("/", filesystem.New(filesystem.Config{
		Root:   http.Dir(dir),
		Index:  "index.html",
		MaxAge: 3600,
	}))
}
