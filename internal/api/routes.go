package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/solace/solace-backend/internal/api/handlers"
	"github.com/solace/solace-backend/internal/services"
)

// SetupRoutes configures all API routes.
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "healthy",
			"service":    "solace-backend",
			"has_secret": svc.Config.Provider.Secret != "",
		})
	})

	// Token minting for thin clients that negotiate the channel
	// themselves
	api.Post("/realtime/token", handlers.MintToken(svc))

	// Session lifecycle
	api.Post("/sessions", handlers.StartSession(svc))
	api.Get("/sessions", handlers.GetSessions(svc))
	api.Get("/sessions/:id", handlers.GetSession(svc))
	api.Delete("/sessions/:id", handlers.EndSession(svc))
	api.Post("/sessions/:id/voice", handlers.ChangeVoice(svc))
	api.Post("/sessions/:id/audio", handlers.PushAudio(svc))
	api.Get("/sessions/:id/reflection", handlers.GetReflection(svc))

	// Live transcript stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id/transcript", websocket.New(handlers.StreamTranscript(svc)))
}
