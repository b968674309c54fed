package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	AdminTickets   *handlers.AdminTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Paths, verbs and status codes are
// a fixed contract with the existing client.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/register", cfg.Auth.Register)
	api.Post("/login", cfg.Auth.Login)
	api.Post("/admin-login", cfg.Auth.AdminLogin)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Post("/logout", cfg.Auth.Logout)

	protected.Post("/tickets", auth.RequireUser(), cfg.Tickets.Submit)
	protected.Get("/tickets", auth.RequireUser(), cfg.Tickets.ListOwn)

	admin := protected.Group("/admin", auth.RequireAdmin())
	admin.Get("/tickets", cfg.AdminTickets.ListAll)
	admin.Put("/tickets/:id/status", cfg.AdminTickets.SetStatus)
}
