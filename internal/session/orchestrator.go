// Package session owns the lifecycle of one realtime voice
// conversation: token acquisition, channel negotiation, inbound event
// dispatch, transcript accumulation and finalization into milestones
// and progress cards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/solace/solace-backend/internal/gateway"
	"github.com/solace/solace-backend/internal/milestones"
	"github.com/solace/solace-backend/internal/models"
	"github.com/solace/solace-backend/internal/realtime"
)

// State is the orchestrator lifecycle state.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

const (
	// defaultGreeting makes the AI speak first once the channel opens.
	defaultGreeting = "Say hello warmly and ask how you can help today."

	// DefaultNegotiationTimeout bounds each network step of connect.
	DefaultNegotiationTimeout = 15 * time.Second
)

// TokenMinter mints ephemeral session tokens. *gateway.Client satisfies
// this; tests substitute fakes.
type TokenMinter interface {
	MintToken(ctx context.Context, req gateway.TokenRequest) (*gateway.TokenResponse, error)
}

// TranscriptListener receives transcript entries as they are
// accumulated. For AI speech the same entry is delivered repeatedly as
// it grows. Listeners are called on the dispatch goroutine and must not
// block.
type TranscriptListener interface {
	OnTranscriptEntry(entry models.TranscriptEntry)
}

// Deps are the orchestrator's collaborators and settings. Minter,
// Transport, Audio and Log are required; Model defaults to nothing and
// should be set; Timeout and Clock have sensible defaults.
type Deps struct {
	Minter    TokenMinter
	Transport realtime.Transport
	Audio     realtime.AudioProvider
	Log       *logrus.Logger
	Model     string
	Timeout   time.Duration
	Clock     func() time.Time

	// OnFinalized, if set, is invoked once with the finalized session,
	// whether it ended by explicit disconnect or channel failure. It
	// runs on its own goroutine.
	OnFinalized func(sess *models.Session)
}

// ConnectParams is one connect request. Everything the orchestrator
// needs arrives here explicitly; nothing is read from ambient state.
type ConnectParams struct {
	Secret       string
	Voice        string
	Instructions string
}

// Orchestrator drives one session through Idle, Negotiating, Active and
// Ended. Ended is terminal: reconnecting takes a new orchestrator.
//
// Caller operations and inbound channel events are serialized on one
// mutex, so no two transcript mutations ever interleave.
type Orchestrator struct {
	minter    TokenMinter
	transport realtime.Transport
	audio     realtime.AudioProvider
	log       *logrus.Logger
	model     string
	timeout   time.Duration
	now       func() time.Time
	onFinal   func(sess *models.Session)

	mu           sync.Mutex
	state        State
	cancelNeg    context.CancelFunc
	channel      realtime.EventChannel
	source       realtime.AudioSource
	acc          *Accumulator
	sess         *models.Session
	final        *models.Session
	voice        string
	listeners    []TranscriptListener
	dispatchDone chan struct{}
}

// NewOrchestrator creates an idle orchestrator.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultNegotiationTimeout
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Log == nil {
		deps.Log = logrus.New()
	}
	return &Orchestrator{
		minter:    deps.Minter,
		transport: deps.Transport,
		audio:     deps.Audio,
		log:       deps.Log,
		model:     deps.Model,
		timeout:   deps.Timeout,
		now:       deps.Clock,
		onFinal:   deps.OnFinalized,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subscribe registers a transcript listener.
func (o *Orchestrator) Subscribe(l TranscriptListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// Connect validates the secret, mints an ephemeral token, acquires
// local audio and negotiates the media/control channel. On success the
// orchestrator is Active, the AI has been told to greet, and a new
// Session is returned. Any failure rolls back to Idle with no partial
// session retained.
func (o *Orchestrator) Connect(ctx context.Context, params ConnectParams) (*models.Session, error) {
	o.mu.Lock()
	switch o.state {
	case StateNegotiating:
		o.mu.Unlock()
		return nil, ErrAlreadyNegotiating
	case StateActive:
		o.mu.Unlock()
		return nil, ErrAlreadyConnected
	case StateEnded:
		o.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if !gateway.ValidSecret(params.Secret) {
		o.mu.Unlock()
		return nil, ErrInvalidCredential
	}

	negCtx, cancel := context.WithCancel(ctx)
	o.state = StateNegotiating
	o.cancelNeg = cancel
	o.voice = params.Voice
	o.mu.Unlock()

	sess, err := o.negotiate(negCtx, params)
	cancel()
	if err != nil {
		o.mu.Lock()
		if o.state == StateNegotiating {
			o.state = StateIdle
			o.cancelNeg = nil
		}
		o.mu.Unlock()
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) negotiate(ctx context.Context, params ConnectParams) (*models.Session, error) {
	mintCtx, cancelMint := context.WithTimeout(ctx, o.timeout)
	token, err := o.minter.MintToken(mintCtx, gateway.TokenRequest{
		Secret:       params.Secret,
		Model:        o.model,
		Voice:        params.Voice,
		Instructions: params.Instructions,
	})
	cancelMint()
	if err != nil {
		return nil, classifyNegotiationError(err)
	}

	source, err := o.audio.Acquire(ctx)
	if err != nil {
		if errors.Is(err, realtime.ErrMicrophoneDenied) {
			return nil, err
		}
		return nil, classifyNegotiationError(err)
	}

	connCtx, cancelConn := context.WithTimeout(ctx, o.timeout)
	channel, err := o.transport.Connect(connCtx, realtime.Credentials{
		ClientSecret: token.ClientSecret.Value,
		Model:        token.Model,
	}, source)
	cancelConn()
	if err != nil {
		source.Close()
		return nil, classifyNegotiationError(err)
	}

	o.mu.Lock()
	if o.state != StateNegotiating {
		// Disconnect raced the negotiation; release what we just opened.
		o.mu.Unlock()
		channel.Close()
		source.Close()
		return nil, fmt.Errorf("%w: cancelled by disconnect", ErrNegotiationFailed)
	}

	o.state = StateActive
	o.cancelNeg = nil
	o.channel = channel
	o.source = source
	o.acc = NewAccumulator(o.now)
	o.sess = &models.Session{
		ID:        uuid.New().String(),
		StartTime: o.now(),
	}
	o.dispatchDone = make(chan struct{})
	sessCopy := *o.sess
	voice := o.voice
	o.mu.Unlock()

	go o.dispatch(channel)

	err = channel.Send(realtime.ClientEvent{
		Type: realtime.EventResponseCreate,
		Response: &realtime.ResponseConfig{
			Instructions: defaultGreeting,
			Modalities:   []string{"audio"},
			Voice:        voice,
		},
	})
	if err != nil {
		o.log.WithError(err).Warn("Failed to send greeting event")
	}

	o.log.WithFields(logrus.Fields{
		"session_id": sessCopy.ID,
		"model":      token.Model,
		"voice":      voice,
	}).Info("Realtime session established")

	return &sessCopy, nil
}

// classifyNegotiationError maps raw failures onto the error taxonomy.
// Token rejections pass through untouched so callers keep the upstream
// status and body.
func classifyNegotiationError(err error) error {
	var tokenErr *gateway.TokenRequestError
	if errors.As(err, &tokenErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrNegotiationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNegotiationFailed, err)
}

// dispatch consumes inbound events in arrival order until the channel
// closes. A close while still Active is the unexpected-teardown case:
// the session is finalized so no transcript is lost.
func (o *Orchestrator) dispatch(channel realtime.EventChannel) {
	defer close(o.dispatchDone)
	for ev := range channel.Events() {
		o.handleEvent(ev)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateActive {
		o.log.Warn("Realtime channel closed unexpectedly, finalizing session")
		o.finalizeLocked()
	}
}

func (o *Orchestrator) handleEvent(ev realtime.ServerEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateActive {
		return
	}

	switch ev.Type {
	case realtime.EventInputTranscriptDone:
		if ev.Transcript == "" {
			return
		}
		entry := o.acc.AppendUser(ev.Transcript)
		o.notifyLocked(entry)

	case realtime.EventAudioTranscriptDelta:
		if ev.Delta == "" {
			return
		}
		entry, _ := o.acc.AppendAIDelta(ev.Delta)
		o.notifyLocked(entry)

	case realtime.EventResponseDone:
		o.acc.CloseAI()

	case realtime.EventError:
		fields := logrus.Fields{}
		if ev.Error != nil {
			fields["code"] = ev.Error.Code
			fields["message"] = ev.Error.Message
		}
		o.log.WithFields(fields).Error("Provider reported an error event")

	default:
		o.log.WithField("type", ev.Type).Debug("Ignoring unrecognized event")
	}
}

func (o *Orchestrator) notifyLocked(entry models.TranscriptEntry) {
	for _, l := range o.listeners {
		l.OnTranscriptEntry(entry)
	}
}

// ChangeVoice asks the AI to switch voices mid-session. Outside Active
// it is a warned no-op; it never returns an error.
func (o *Orchestrator) ChangeVoice(voice string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateActive {
		o.log.WithField("state", o.state.String()).Warn("Cannot change voice - not connected")
		return
	}

	o.voice = voice
	err := o.channel.Send(realtime.ClientEvent{
		Type: realtime.EventResponseCreate,
		Response: &realtime.ResponseConfig{
			Instructions: fmt.Sprintf("I'm now speaking with the %s voice. How does this sound?", voice),
			Modalities:   []string{"audio", "text"},
			Audio:        &realtime.AudioConfig{Voice: voice},
		},
	})
	if err != nil {
		o.log.WithError(err).Warn("Failed to send voice change event")
	}
}

// Disconnect tears down the channel and capture, finalizes the session
// (transcript snapshot, milestone detection, progress cards, summary)
// and returns it. It always succeeds: teardown errors are logged, not
// propagated. Calling it from Idle returns nil; calling it again after
// Ended returns the same finalized session. During Negotiating it
// aborts the in-flight attempt; no session was established, so it
// returns nil.
func (o *Orchestrator) Disconnect() *models.Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case StateIdle:
		return nil
	case StateEnded:
		return o.final
	case StateNegotiating:
		if o.cancelNeg != nil {
			o.cancelNeg()
			o.cancelNeg = nil
		}
		o.state = StateEnded
		return nil
	}

	return o.finalizeLocked()
}

// finalizeLocked stamps the end time, snapshots the transcript, runs
// milestone inference and card generation, releases resources and
// transitions to Ended. Callers hold o.mu.
func (o *Orchestrator) finalizeLocked() *models.Session {
	endTime := o.now()
	o.sess.EndTime = &endTime
	o.sess.Duration = endTime.Sub(o.sess.StartTime)

	transcript := o.acc.Snapshot()
	o.sess.Transcript = transcript
	o.sess.Milestones = milestones.Detect(transcript)
	o.sess.ProgressCards = milestones.BuildCards(o.sess.ID, o.sess.Milestones)
	o.sess.Summary = milestones.Summarize(o.sess.Milestones)

	if o.channel != nil {
		if err := o.channel.Close(); err != nil {
			o.log.WithError(err).Warn("Channel teardown failed")
		}
		o.channel = nil
	}
	if o.source != nil {
		if err := o.source.Close(); err != nil {
			o.log.WithError(err).Warn("Audio source teardown failed")
		}
		o.source = nil
	}

	o.state = StateEnded
	o.final = o.sess

	o.log.WithFields(logrus.Fields{
		"session_id": o.final.ID,
		"entries":    len(o.final.Transcript),
		"milestones": len(o.final.Milestones),
		"duration":   o.final.Duration.String(),
	}).Info("Session finalized")

	if o.onFinal != nil {
		go o.onFinal(o.final)
	}

	return o.final
}
