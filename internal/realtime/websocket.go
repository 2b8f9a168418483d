package realtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketTransport negotiates the provider channel over WebSocket.
// The provider accepts both transports; this one carries audio inline
// as base64 input_audio_buffer.append events instead of a media track.
type WebSocketTransport struct {
	baseURL string
	dialer  *websocket.Dialer
	log     *logrus.Logger
}

// NewWebSocketTransport creates a WebSocket transport against the
// provider base URL, e.g. "wss://api.openai.com/v1".
func NewWebSocketTransport(baseURL string, log *logrus.Logger) *WebSocketTransport {
	return &WebSocketTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Connect dials the realtime endpoint with the ephemeral token. The
// returned channel is open as soon as the dial completes.
func (t *WebSocketTransport) Connect(ctx context.Context, creds Credentials, source AudioSource) (EventChannel, error) {
	endpoint := fmt.Sprintf("%s/realtime?model=%s", t.baseURL, url.QueryEscape(creds.Model))
	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.ClientSecret)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := t.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("provider rejected negotiation with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("negotiation dial failed: %w", err)
	}

	ch := &websocketChannel{
		conn:   conn,
		events: make(chan ServerEvent, 64),
		log:    t.log,
	}
	go ch.readLoop()
	go ch.pumpAudio(source)

	return ch, nil
}

// websocketChannel adapts a gorilla connection to EventChannel. The
// single readLoop goroutine owns the events channel.
type websocketChannel struct {
	conn    *websocket.Conn
	events  chan ServerEvent
	writeMu sync.Mutex
	closed  bool
	log     *logrus.Logger
}

func (c *websocketChannel) readLoop() {
	defer close(c.events)
	for {
		var ev ServerEvent
		if err := c.conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.WithError(err).Debug("Realtime websocket read ended")
			}
			return
		}
		c.events <- ev
	}
}

// pumpAudio streams captured frames to the provider until the source
// ends or the connection drops.
func (c *websocketChannel) pumpAudio(source AudioSource) {
	for frame := range source.Frames() {
		err := c.Send(ClientEvent{
			Type:  EventInputAudioAppend,
			Audio: base64.StdEncoding.EncodeToString(frame.Data),
		})
		if err != nil {
			return
		}
	}
}

func (c *websocketChannel) Send(event ClientEvent) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	return c.conn.WriteJSON(event)
}

func (c *websocketChannel) Events() <-chan ServerEvent {
	return c.events
}

func (c *websocketChannel) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}
