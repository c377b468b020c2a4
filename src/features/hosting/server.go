package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/contre95/snapshotd/src/features/config"
	"github.com/contre95/snapshotd/src/features/renaming"
)

// Server is the optional status HTTP server: health, Prometheus metrics and
// the recent-event journal. The core pipeline runs fully without it.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new status server.
func NewServer(cfg *config.Manager, journal renaming.Recorder) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "Snapshotd",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/events", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		return c.JSON(journal.Recent(limit))
	})

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start launches the server in the background.
func (s *Server) Start() error {
	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			slog.Error("Status server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
