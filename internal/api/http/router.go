package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bot/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Channels *handlers.ChannelsHandler
	Tickets  *handlers.TicketsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/channels", cfg.Channels.ListChannels)
	app.Get("/channels/:id", cfg.Channels.GetChannel)
	app.Get("/channels/:id/tickets", cfg.Tickets.ListChannelTickets)
	app.Get("/tickets/:id", cfg.Tickets.GetTicket)
}
