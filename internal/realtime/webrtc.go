package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/sirupsen/logrus"
)

// WebRTCTransport negotiates the provider channel over WebRTC: local
// audio goes out on a media track, control events ride a data channel,
// and the SDP offer/answer is exchanged over HTTPS using the ephemeral
// token.
type WebRTCTransport struct {
	baseURL    string
	stunURL    string
	httpClient *http.Client
	sink       AudioSink
	log        *logrus.Logger
}

// NewWebRTCTransport creates a WebRTC transport against the provider
// base URL, e.g. "https://api.openai.com/v1". sink may be nil if nobody
// wants remote audio frames.
func NewWebRTCTransport(baseURL string, sink AudioSink, log *logrus.Logger) *WebRTCTransport {
	return &WebRTCTransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		stunURL:    "stun:stun.l.google.com:19302",
		httpClient: &http.Client{},
		sink:       sink,
		log:        log,
	}
}

// Connect establishes the peer session: local track attached, data
// channel created, offer posted to the provider, answer applied. It
// returns once the data channel reports open, or fails with the
// context's error if the deadline passes first.
func (t *WebRTCTransport) Connect(ctx context.Context, creds Credentials, source AudioSource) (EventChannel, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{t.stunURL}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "solace-mic")
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to create audio track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to attach audio track: %w", err)
	}

	pc.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		t.log.WithField("codec", remote.Codec().MimeType).Debug("Received remote audio track")
		if t.sink == nil {
			return
		}
		go func() {
			for {
				pkt, _, err := remote.ReadRTP()
				if err != nil {
					return
				}
				t.sink.WriteFrame(AudioFrame{Data: pkt.Payload})
			}
		}()
	})

	dc, err := pc.CreateDataChannel("oai-events", nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to create data channel: %w", err)
	}

	ch := newWebRTCChannel(pc, dc, t.log)

	opened := make(chan struct{})
	dc.OnOpen(func() {
		close(opened)
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}

	answer, err := t.exchangeDescription(ctx, creds, pc.LocalDescription().SDP)
	if err != nil {
		pc.Close()
		return nil, err
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	}); err != nil {
		pc.Close()
		return nil, fmt.Errorf("malformed remote description: %w", err)
	}

	select {
	case <-opened:
	case <-ctx.Done():
		pc.Close()
		return nil, ctx.Err()
	}

	// Feed captured audio into the outbound track until the source ends.
	go func() {
		for frame := range source.Frames() {
			if err := track.WriteSample(media.Sample{Data: frame.Data, Duration: frame.Duration}); err != nil {
				t.log.WithError(err).Debug("Dropping outbound audio sample")
				return
			}
		}
	}()

	return ch, nil
}

// exchangeDescription posts the local SDP to the provider's realtime
// endpoint and returns the remote SDP.
func (t *WebRTCTransport) exchangeDescription(ctx context.Context, creds Credentials, localSDP string) (string, error) {
	endpoint := fmt.Sprintf("%s/realtime?model=%s", t.baseURL, url.QueryEscape(creds.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(localSDP))
	if err != nil {
		return "", fmt.Errorf("failed to build negotiation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.ClientSecret)
	req.Header.Set("Content-Type", "application/sdp")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("negotiation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read negotiation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider rejected negotiation with status %d: %s", resp.StatusCode, string(body))
	}
	return string(body), nil
}

// webrtcChannel adapts a pion data channel to EventChannel. Inbound
// messages are delivered and the events channel closed from the data
// channel's serial callback context, so no extra locking is needed on
// the receive path.
type webrtcChannel struct {
	pc     *webrtc.PeerConnection
	dc     *webrtc.DataChannel
	events chan ServerEvent
	closed atomic.Bool
	log    *logrus.Logger
}

func newWebRTCChannel(pc *webrtc.PeerConnection, dc *webrtc.DataChannel, log *logrus.Logger) *webrtcChannel {
	ch := &webrtcChannel{
		pc:     pc,
		dc:     dc,
		events: make(chan ServerEvent, 64),
		log:    log,
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var ev ServerEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.WithError(err).Debug("Failed to parse realtime event")
			return
		}
		ch.events <- ev
	})

	dc.OnClose(func() {
		ch.closed.Store(true)
		close(ch.events)
	})

	return ch
}

func (c *webrtcChannel) Send(event ClientEvent) error {
	if c.closed.Load() {
		return ErrChannelClosed
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return c.dc.SendText(string(payload))
}

func (c *webrtcChannel) Events() <-chan ServerEvent {
	return c.events
}

func (c *webrtcChannel) Close() error {
	// Closing the data channel drains its read loop, which fires OnClose
	// and closes the events channel.
	if err := c.dc.Close(); err != nil {
		c.log.WithError(err).Warn("Data channel close failed")
	}
	return c.pc.Close()
}
