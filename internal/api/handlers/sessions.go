package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/solace/solace-backend/internal/gateway"
	"github.com/solace/solace-backend/internal/realtime"
	"github.com/solace/solace-backend/internal/services"
	"github.com/solace/solace-backend/internal/session"
)

// StartSession connects a new voice session and returns it.
func StartSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req services.StartRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid request body",
				})
			}
		}

		sess, err := svc.Manager.Start(c.Context(), req)
		if err != nil {
			return connectError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// connectError maps the negotiation error taxonomy onto HTTP statuses.
func connectError(c *fiber.Ctx, err error) error {
	var tokenErr *gateway.TokenRequestError
	switch {
	case errors.Is(err, session.ErrInvalidCredential):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid API key format",
		})
	case errors.Is(err, session.ErrAlreadyNegotiating):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A connect attempt is already in flight",
		})
	case errors.Is(err, realtime.ErrMicrophoneDenied):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Microphone access denied. Please allow microphone permissions and try again.",
		})
	case errors.Is(err, session.ErrNegotiationTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Negotiation with the realtime provider timed out",
		})
	case errors.As(err, &tokenErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":           "Provider rejected the token request",
			"upstream_status": tokenErr.Status,
			"upstream_body":   tokenErr.Body,
		})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// EndSession disconnects a live session and returns the finalized
// session with its milestones, progress cards and summary.
func EndSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		final, err := svc.Manager.End(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(final)
	}
}

// GetSessions lists stored sessions, most recent first.
func GetSessions(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 50)
		sessions, err := svc.Sessions.List(c.Context(), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"sessions": sessions,
		})
	}
}

// GetSession returns one stored session.
func GetSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := svc.Sessions.Get(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if sess == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(sess)
	}
}

// ChangeVoice switches the AI voice on a live session.
func ChangeVoice(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Voice string `json:"voice"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if err := svc.Manager.ChangeVoice(c.Params("id"), req.Voice); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(fiber.Map{
			"message": "Voice change requested",
		})
	}
}

// PushAudio ingests one frame of caller audio for a live session. The
// body is the raw frame payload.
func PushAudio(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := c.Body()
		if len(body) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Empty audio frame",
			})
		}

		frame := realtime.AudioFrame{Data: append([]byte(nil), body...)}
		if err := svc.Manager.PushAudio(c.Params("id"), frame); err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.SendStatus(fiber.StatusAccepted)
	}
}

// GetReflection returns a reflective narrative of a stored session.
func GetReflection(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := svc.Sessions.Get(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if sess == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(fiber.Map{
			"session_id": sess.ID,
			"reflection": svc.Summary.Reflect(c.Context(), sess),
		})
	}
}
