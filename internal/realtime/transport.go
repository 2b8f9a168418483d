// Package realtime implements the media/control channel to the upstream
// realtime provider: the JSON event envelopes, the transport abstraction
// and the WebRTC and WebSocket transports behind it.
package realtime

import (
	"context"
	"errors"
	"time"
)

// ErrMicrophoneDenied is returned by an AudioProvider when the user (or
// platform) refuses capture permission. The orchestrator surfaces it
// distinctly from network failures.
var ErrMicrophoneDenied = errors.New("microphone access denied")

// ErrChannelClosed is returned by Send on a closed event channel.
var ErrChannelClosed = errors.New("event channel is closed")

// Credentials authorizes one channel negotiation. ClientSecret is the
// gateway-issued ephemeral token, never the long-lived secret.
type Credentials struct {
	ClientSecret string
	Model        string
}

// AudioFrame is one chunk of captured or decoded audio.
type AudioFrame struct {
	Data     []byte
	Duration time.Duration
}

// AudioSource is an acquired local capture stream. Frames is closed when
// the source is exhausted or closed.
type AudioSource interface {
	Frames() <-chan AudioFrame
	Close() error
}

// AudioProvider acquires local audio capture for a session. Acquisition
// is scoped: whatever Connect acquires, disconnect (or a failed
// negotiation) releases.
type AudioProvider interface {
	Acquire(ctx context.Context) (AudioSource, error)
}

// AudioSink receives decoded remote audio frames. Collaborators that
// want playback implement this; the orchestrator never touches audio
// devices itself.
type AudioSink interface {
	WriteFrame(frame AudioFrame)
}

// EventChannel is an established bidirectional control channel. Events
// is closed when the underlying channel closes, whatever the reason;
// the consumer decides whether that was expected.
type EventChannel interface {
	Send(event ClientEvent) error
	Events() <-chan ServerEvent
	Close() error
}

// Transport negotiates the media/control channel with the provider.
// Implementations: WebRTC (SDP exchange, default) and WebSocket.
type Transport interface {
	Connect(ctx context.Context, creds Credentials, source AudioSource) (EventChannel, error)
}
