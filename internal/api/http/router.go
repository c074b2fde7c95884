package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/g-mayer/user-service/internal/api/http/handlers"
	"github.com/g-mayer/user-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Everything under /api passes through the
// authentication middleware before any handler runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Hello world!")
	})

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Get("/user", cfg.Users.Find)
	api.Get("/users", cfg.Users.List)
	api.Post("/user", cfg.Users.Create)
	api.Put("/user/:id", cfg.Users.Update)
	api.Delete("/user/:id", cfg.Users.Delete)

	admin := app.Group("/admin")
	admin.Get("/seed", cfg.Admin.Seed)
}
