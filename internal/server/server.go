package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/longevity-agent/server/internal/agent/graph"
	"github.com/longevity-agent/server/internal/agent/model"
	errx "github.com/longevity-agent/server/internal/core/error"
	logx "github.com/longevity-agent/server/pkg/logger"
)

type Server struct {
	app *fiber.App
	cfg model.ServerConfig
}

func New(cfg model.ServerConfig, runner graph.Runner) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	NewAgentHandler(runner).RegisterRoutes(app)

	return &Server{app: app, cfg: cfg}
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	logx.Info().Str("port", s.cfg.Port).Msg("Server is running")
	return s.app.Listen(":" + s.cfg.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every unhandled error, panics included, as JSON.
// Validation errors keep their code; anything else becomes {"error": detail}.
func errorHandler(c *fiber.Ctx, err error) error {
	var appErr *errx.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"error": fiber.Map{"code": appErr.Code, "message": appErr.Message},
		})
	}

	status := errx.StatusOf(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	logx.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("Unhandled exception")
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
