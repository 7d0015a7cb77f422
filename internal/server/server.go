// Package server exposes profile building over HTTP.
package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/planbiir/gprofile/internal/config"
	"github.com/planbiir/gprofile/internal/places"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	Annotator *places.Annotator
	Logger    *slog.Logger
}

// NewServer wires middleware and routes. annotator may be nil, in which case
// reports carry no place labels.
func NewServer(cfg config.Config, annotator *places.Annotator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(discardHandler)
	}
	log = log.With("component", "server")

	bodyLimit := cfg.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 20
	}
	app := fiber.New(fiber.Config{
		AppName:               "gprofile",
		BodyLimit:             bodyLimit * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:       app,
		Cfg:       cfg,
		Annotator: annotator,
		Logger:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	svc := &Service{
		Profile:   s.Cfg.ProfileConfig(),
		Render:    s.Cfg.RenderOptions(),
		Annotator: s.Annotator,
		Logger:    s.Logger,
	}
	RegisterRoutes(s.App.Group("/profile"), svc)
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", "path", c.Path(), "error", err)
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}
