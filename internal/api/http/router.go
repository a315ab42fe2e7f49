package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/arcede/tickets/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Admin   *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.Create)
	tickets.Post("/close", cfg.Tickets.Close)
	tickets.Post("/reopen", cfg.Tickets.Reopen)
	tickets.Post("/claim", cfg.Tickets.Claim)
	tickets.Post("/messages", cfg.Tickets.Message)

	app.Get("/channels/:channelID/transcript", cfg.Tickets.TranscriptByChannel)
	app.Get("/guilds/:guildID/stats", cfg.Tickets.Stats)
	app.Get("/guilds/:guildID/tickets/:ticketID/transcript", cfg.Tickets.Transcript)

	admin := app.Group("/admin")
	admin.Post("/support-roles", cfg.Admin.AddSupportRole)
	admin.Delete("/support-roles", cfg.Admin.RemoveSupportRole)
	admin.Post("/ai", cfg.Admin.SetAI)
	admin.Post("/logs-channel", cfg.Admin.SetLogsChannel)
	admin.Get("/guilds/:guildID/config", cfg.Admin.Config)
}
