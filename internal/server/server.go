package server

import (
	"context"
	"log"
	"time"

	"collab-platform-be/internal/bootstrap"
	"collab-platform-be/internal/config"
	"collab-platform-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/health", func(ctx *fiber.Ctx) error {
		probeCtx, cancel := context.WithTimeout(ctx.Context(), 2*time.Second)
		defer cancel()

		components := container.Health(probeCtx)
		return ctx.JSON(fiber.Map{
			"status":     "ok",
			"components": components,
		})
	})

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	api := app.Group("/api")

	// Websocket handshake authenticates itself (query-string token support),
	// so the JWT guard mounts only on the REST prefixes.
	c.CollabHandler.RegisterRoutes(api)

	jwtGuard := serverutils.JwtMiddleware(cfg.App.JWTSecret)
	api.Use("/jobs", jwtGuard)
	api.Use("/workspaces", jwtGuard)

	c.JobController.RegisterRoutes(api)
	c.ActivityController.RegisterRoutes(api)
}
