package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/console-gateway/internal/api/http/handlers"
	"github.com/opsdesk/console-gateway/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sessions       *handlers.SessionHandler
	WorkItems      *handlers.WorkItemsHandler
	Observations   *handlers.ObservationsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Sessions.Login)
	authGroup.Post("/register", cfg.Sessions.Register)
	authGroup.Post("/refresh", cfg.Sessions.Refresh)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)
	api.Get("/notifications", cfg.Notifications.Recent)

	kind := api.Group("/:kind")
	kind.Get("/", cfg.WorkItems.List)
	kind.Post("/reload", cfg.WorkItems.Reload)

	item := kind.Group("/:id")
	item.Put("/claim", cfg.WorkItems.Claim)
	item.Put("/release", cfg.WorkItems.Release)
	item.Put("/status", cfg.WorkItems.RequestStatus)
	item.Put("/status/confirm", cfg.WorkItems.ConfirmStatus)
	item.Delete("/status/pending", cfg.WorkItems.AbandonStatus)
	item.Get("/observations", cfg.Observations.List)
	item.Post("/observations", cfg.Observations.Append)
	item.Post("/observations/reload", cfg.Observations.Reload)
}
