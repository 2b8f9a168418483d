package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/solace/solace-backend/internal/gateway"
	"github.com/solace/solace-backend/internal/services"
)

// MintToken exchanges the server-held secret (or one supplied in the
// request) for an ephemeral realtime token, for clients that negotiate
// the media channel themselves.
func MintToken(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			APIKey       string `json:"api_key,omitempty"`
			Model        string `json:"model,omitempty"`
			Voice        string `json:"voice,omitempty"`
			Instructions string `json:"instructions,omitempty"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid request body",
				})
			}
		}

		secret := req.APIKey
		if secret == "" {
			secret = svc.Config.Provider.Secret
		}
		if !gateway.ValidSecret(secret) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No valid API key provided",
			})
		}

		model := req.Model
		if model == "" {
			model = svc.Config.Provider.Model
		}
		voice := req.Voice
		if voice == "" {
			voice = svc.Config.Provider.DefaultVoice
		}

		token, err := svc.Gateway.MintToken(c.Context(), gateway.TokenRequest{
			Secret:       secret,
			Model:        model,
			Voice:        voice,
			Instructions: req.Instructions,
		})
		if err != nil {
			var tokenErr *gateway.TokenRequestError
			if errors.As(err, &tokenErr) {
				return c.Status(tokenErr.Status).JSON(fiber.Map{
					"error": tokenErr.Body,
				})
			}
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(token)
	}
}
