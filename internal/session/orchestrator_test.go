package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace/solace-backend/internal/gateway"
	"github.com/solace/solace-backend/internal/models"
	"github.com/solace/solace-backend/internal/realtime"
)

type fakeMinter struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (m *fakeMinter) MintToken(ctx context.Context, req gateway.TokenRequest) (*gateway.TokenResponse, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &gateway.TokenResponse{
		ID:           "sess_abc",
		Model:        req.Model,
		ClientSecret: gateway.ClientSecret{Value: "ek_test"},
	}, nil
}

func (m *fakeMinter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeChannel struct {
	mu     sync.Mutex
	sent   []realtime.ClientEvent
	events chan realtime.ServerEvent
	closed bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan realtime.ServerEvent, 16)}
}

func (c *fakeChannel) Send(event realtime.ClientEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.ErrChannelClosed
	}
	c.sent = append(c.sent, event)
	return nil
}

func (c *fakeChannel) Events() <-chan realtime.ServerEvent {
	return c.events
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

func (c *fakeChannel) sentEvents() []realtime.ClientEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]realtime.ClientEvent, len(c.sent))
	copy(out, c.sent)
	return out
}

type fakeTransport struct {
	channel *fakeChannel
	err     error
}

func (t *fakeTransport) Connect(ctx context.Context, creds realtime.Credentials, source realtime.AudioSource) (realtime.EventChannel, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.channel, nil
}

type fakeSource struct {
	mu     sync.Mutex
	frames chan realtime.AudioFrame
	closed bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{frames: make(chan realtime.AudioFrame)}
}

func (s *fakeSource) Frames() <-chan realtime.AudioFrame { return s.frames }

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
	return nil
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeAudio struct {
	source *fakeSource
	err    error
}

func (a *fakeAudio) Acquire(ctx context.Context) (realtime.AudioSource, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.source, nil
}

type recordingListener struct {
	mu      sync.Mutex
	entries []models.TranscriptEntry
}

func (l *recordingListener) OnTranscriptEntry(entry models.TranscriptEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *recordingListener) snapshot() []models.TranscriptEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.TranscriptEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

type testHarness struct {
	orch      *Orchestrator
	minter    *fakeMinter
	transport *fakeTransport
	channel   *fakeChannel
	source    *fakeSource
	audio     *fakeAudio
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newHarness(mutate func(*Deps)) *testHarness {
	h := &testHarness{
		minter:  &fakeMinter{},
		channel: newFakeChannel(),
		source:  newFakeSource(),
	}
	h.transport = &fakeTransport{channel: h.channel}
	h.audio = &fakeAudio{source: h.source}

	deps := Deps{
		Minter:    h.minter,
		Transport: h.transport,
		Audio:     h.audio,
		Log:       quietLogger(),
		Model:     "gpt-4o-realtime-preview-2024-10-01",
	}
	if mutate != nil {
		mutate(&deps)
	}
	h.orch = NewOrchestrator(deps)
	return h
}

func validParams() ConnectParams {
	return ConnectParams{
		Secret:       "sk-test-secret",
		Voice:        "alloy",
		Instructions: "You are a warm, compassionate companion.",
	}
}

func TestConnect_InvalidCredential(t *testing.T) {
	h := newHarness(nil)

	sess, err := h.orch.Connect(context.Background(), ConnectParams{Secret: "bad-key"})

	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Nil(t, sess)
	assert.Equal(t, StateIdle, h.orch.State())
	// Shape validation happens before any network activity.
	assert.Zero(t, h.minter.callCount())
}

func TestConnect_Success(t *testing.T) {
	h := newHarness(nil)

	sess, err := h.orch.Connect(context.Background(), validParams())

	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.NotEmpty(t, sess.ID)
	assert.Nil(t, sess.EndTime)
	assert.Equal(t, StateActive, h.orch.State())

	sent := h.channel.sentEvents()
	require.Len(t, sent, 1)
	greeting := sent[0]
	assert.Equal(t, realtime.EventResponseCreate, greeting.Type)
	require.NotNil(t, greeting.Response)
	assert.Equal(t, "Say hello warmly and ask how you can help today.", greeting.Response.Instructions)
	assert.Equal(t, []string{"audio"}, greeting.Response.Modalities)
	assert.Equal(t, "alloy", greeting.Response.Voice)
}

func TestConnect_TokenRejectionPassesThrough(t *testing.T) {
	h := newHarness(nil)
	h.minter.err = &gateway.TokenRequestError{Status: 401, Body: "invalid api key"}

	_, err := h.orch.Connect(context.Background(), validParams())

	var tokenErr *gateway.TokenRequestError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, 401, tokenErr.Status)
	assert.Equal(t, "invalid api key", tokenErr.Body)
	assert.Equal(t, StateIdle, h.orch.State())
}

func TestConnect_MicrophoneDenied(t *testing.T) {
	h := newHarness(nil)
	h.audio.err = realtime.ErrMicrophoneDenied

	_, err := h.orch.Connect(context.Background(), validParams())

	assert.ErrorIs(t, err, realtime.ErrMicrophoneDenied)
	assert.Equal(t, StateIdle, h.orch.State())
}

func TestConnect_TransportFailureReleasesAudio(t *testing.T) {
	h := newHarness(nil)
	h.transport.err = errors.New("sdp exchange rejected")

	_, err := h.orch.Connect(context.Background(), validParams())

	assert.ErrorIs(t, err, ErrNegotiationFailed)
	assert.Equal(t, StateIdle, h.orch.State())
	assert.True(t, h.source.isClosed())
}

func TestConnect_ConcurrentAttemptRejected(t *testing.T) {
	h := newHarness(nil)
	h.minter.block = make(chan struct{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := h.orch.Connect(context.Background(), validParams())
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		return h.orch.State() == StateNegotiating
	}, time.Second, 5*time.Millisecond)

	_, err := h.orch.Connect(context.Background(), validParams())
	assert.ErrorIs(t, err, ErrAlreadyNegotiating)

	close(h.minter.block)
	require.NoError(t, <-firstDone)
	assert.Equal(t, StateActive, h.orch.State())
}

func TestDispatch_TranscriptFlow(t *testing.T) {
	h := newHarness(nil)
	listener := &recordingListener{}
	h.orch.Subscribe(listener)

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)

	h.channel.events <- realtime.ServerEvent{
		Type:       realtime.EventInputTranscriptDone,
		Transcript: "I had a rough week",
	}
	h.channel.events <- realtime.ServerEvent{Type: realtime.EventAudioTranscriptDelta, Delta: "I'm sorry"}
	h.channel.events <- realtime.ServerEvent{Type: realtime.EventAudioTranscriptDelta, Delta: " to hear that."}
	h.channel.events <- realtime.ServerEvent{Type: realtime.EventResponseDone}
	h.channel.events <- realtime.ServerEvent{Type: "rate_limits.updated"}

	require.Eventually(t, func() bool {
		entries := listener.snapshot()
		if len(entries) < 3 {
			return false
		}
		last := entries[len(entries)-1]
		return last.Content == "I'm sorry to hear that."
	}, time.Second, 5*time.Millisecond)

	final := h.orch.Disconnect()
	require.NotNil(t, final)
	require.Len(t, final.Transcript, 2)
	assert.Equal(t, models.SpeakerUser, final.Transcript[0].Speaker)
	assert.Equal(t, "I had a rough week", final.Transcript[0].Content)
	assert.Equal(t, models.SpeakerAI, final.Transcript[1].Speaker)
	assert.Equal(t, "I'm sorry to hear that.", final.Transcript[1].Content)
}

func TestDisconnect_FinalizesMilestones(t *testing.T) {
	h := newHarness(nil)
	listener := &recordingListener{}
	h.orch.Subscribe(listener)

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)

	h.channel.events <- realtime.ServerEvent{
		Type:       realtime.EventInputTranscriptDone,
		Transcript: "I feel a real breakthrough today",
	}
	require.Eventually(t, func() bool {
		return len(listener.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	final := h.orch.Disconnect()
	require.NotNil(t, final)
	require.NotNil(t, final.EndTime)
	assert.GreaterOrEqual(t, final.Duration, time.Duration(0))

	require.Len(t, final.Milestones, 1)
	assert.Equal(t, models.CategoryEmotionalBreakthrough, final.Milestones[0].Category)

	require.Len(t, final.ProgressCards, 1)
	assert.Equal(t, "card-"+final.Milestones[0].ID, final.ProgressCards[0].ID)
	assert.Equal(t, final.ID, final.ProgressCards[0].SessionID)

	assert.Equal(t, "Great progress with 🌟 emotional breakthrough. Keep building on this insight.", final.Summary)
	assert.Equal(t, StateEnded, h.orch.State())
	assert.True(t, h.source.isClosed())
}

func TestDisconnect_Idempotent(t *testing.T) {
	h := newHarness(nil)

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)

	first := h.orch.Disconnect()
	second := h.orch.Disconnect()

	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestDisconnect_WhileIdle(t *testing.T) {
	h := newHarness(nil)
	assert.Nil(t, h.orch.Disconnect())
	assert.Equal(t, StateIdle, h.orch.State())
}

func TestDisconnect_AbortsNegotiation(t *testing.T) {
	h := newHarness(nil)
	h.minter.block = make(chan struct{})
	defer close(h.minter.block)

	connectDone := make(chan error, 1)
	go func() {
		_, err := h.orch.Connect(context.Background(), validParams())
		connectDone <- err
	}()

	require.Eventually(t, func() bool {
		return h.orch.State() == StateNegotiating
	}, time.Second, 5*time.Millisecond)

	assert.Nil(t, h.orch.Disconnect())
	assert.Equal(t, StateEnded, h.orch.State())

	err := <-connectDone
	assert.ErrorIs(t, err, ErrNegotiationFailed)
}

func TestChannelClosed_FinalizesSession(t *testing.T) {
	finalized := make(chan *models.Session, 1)
	h := newHarness(func(d *Deps) {
		d.OnFinalized = func(sess *models.Session) {
			finalized <- sess
		}
	})

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)

	// Simulate the provider dropping the channel mid-session.
	h.channel.Close()

	require.Eventually(t, func() bool {
		return h.orch.State() == StateEnded
	}, time.Second, 5*time.Millisecond)

	select {
	case sess := <-finalized:
		require.NotNil(t, sess)
		assert.NotNil(t, sess.EndTime)
	case <-time.After(time.Second):
		t.Fatal("finalization hook was never invoked")
	}
}

func TestConnect_AfterEnded(t *testing.T) {
	h := newHarness(nil)

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)
	h.orch.Disconnect()

	_, err = h.orch.Connect(context.Background(), validParams())
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestChangeVoice_IgnoredWhenNotActive(t *testing.T) {
	h := newHarness(nil)

	h.orch.ChangeVoice("coral")

	assert.Empty(t, h.channel.sentEvents())
	assert.Equal(t, StateIdle, h.orch.State())
}

func TestChangeVoice_SendsAnnouncement(t *testing.T) {
	h := newHarness(nil)

	_, err := h.orch.Connect(context.Background(), validParams())
	require.NoError(t, err)

	h.orch.ChangeVoice("coral")

	sent := h.channel.sentEvents()
	require.Len(t, sent, 2)
	announce := sent[1]
	assert.Equal(t, realtime.EventResponseCreate, announce.Type)
	require.NotNil(t, announce.Response)
	assert.Equal(t, "I'm now speaking with the coral voice. How does this sound?", announce.Response.Instructions)
	assert.Equal(t, []string{"audio", "text"}, announce.Response.Modalities)
	require.NotNil(t, announce.Response.Audio)
	assert.Equal(t, "coral", announce.Response.Audio.Voice)
}
