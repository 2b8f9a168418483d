package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/solace/solace-backend/internal/models"
	"github.com/solace/solace-backend/internal/services"
)

// transcriptListener buffers entries between the dispatch goroutine and
// the websocket writer. It must never block the dispatcher, so a full
// buffer drops the oldest delivery; the next delta carries the full
// entry content anyway.
type transcriptListener struct {
	entries chan models.TranscriptEntry
}

func newTranscriptListener() *transcriptListener {
	return &transcriptListener{
		entries: make(chan models.TranscriptEntry, 64),
	}
}

func (l *transcriptListener) OnTranscriptEntry(entry models.TranscriptEntry) {
	select {
	case l.entries <- entry:
	default:
		select {
		case <-l.entries:
		default:
		}
		select {
		case l.entries <- entry:
		default:
		}
	}
}

// StreamTranscript handles WebSocket /ws/sessions/:id/transcript,
// pushing transcript entries to the client as they accumulate.
func StreamTranscript(svc *services.Services) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		listener := newTranscriptListener()
		if err := svc.Manager.Subscribe(c.Params("id"), listener); err != nil {
			c.WriteJSON(fiber.Map{"error": "Session not found"})
			return
		}

		// Drain client frames so close handshakes are noticed.
		clientGone := make(chan struct{})
		go func() {
			defer close(clientGone)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case entry := <-listener.entries:
				if err := c.WriteJSON(entry); err != nil {
					return
				}
			case <-clientGone:
				return
			}
		}
	}
}
