package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/solace/solace-backend/internal/config"
	"github.com/solace/solace-backend/internal/instructions"
	"github.com/solace/solace-backend/internal/models"
	"github.com/solace/solace-backend/internal/realtime"
	"github.com/solace/solace-backend/internal/repository"
	"github.com/solace/solace-backend/internal/session"
)

// ErrSessionNotFound is returned for operations on unknown session IDs.
var ErrSessionNotFound = errors.New("session not found")

// StartRequest describes a new conversation. The caller resolves
// everything up front; the manager and orchestrator never read
// ambient settings.
type StartRequest struct {
	Preset             instructions.Preset    `json:"preset"`
	Assessment         *models.AssessmentData `json:"assessment,omitempty"`
	CustomInstructions string                 `json:"custom_instructions,omitempty"`
	Voice              string                 `json:"voice,omitempty"`
}

type liveSession struct {
	orch   *session.Orchestrator
	source *realtime.PushSource
}

// SessionManager tracks live orchestrators, one per active session,
// and persists sessions as they finalize.
type SessionManager struct {
	cfg       *config.Config
	minter    session.TokenMinter
	transport realtime.Transport
	repo      repository.SessionRepository
	log       *logrus.Logger

	mu   sync.Mutex
	live map[string]*liveSession
}

// NewSessionManager creates a session manager.
func NewSessionManager(
	cfg *config.Config,
	minter session.TokenMinter,
	transport realtime.Transport,
	repo repository.SessionRepository,
	log *logrus.Logger,
) *SessionManager {
	return &SessionManager{
		cfg:       cfg,
		minter:    minter,
		transport: transport,
		repo:      repo,
		log:       log,
		live:      make(map[string]*liveSession),
	}
}

// staticAudioProvider hands a pre-built push source to the
// orchestrator, so the ingest surface can reach the same source.
type staticAudioProvider struct {
	source realtime.AudioSource
}

func (p staticAudioProvider) Acquire(ctx context.Context) (realtime.AudioSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.source, nil
}

// Start connects a new session and registers it as live. The returned
// session carries the ID used by all subsequent operations.
func (m *SessionManager) Start(ctx context.Context, req StartRequest) (*models.Session, error) {
	voice := models.NormalizeVoice(req.Voice, m.cfg.Provider.DefaultVoice)
	instr := instructions.Compose(instructions.Config{
		Preset:     req.Preset,
		Assessment: req.Assessment,
		Custom:     req.CustomInstructions,
	})

	source := realtime.NewPushSource(256)
	orch := session.NewOrchestrator(session.Deps{
		Minter:      m.minter,
		Transport:   m.transport,
		Audio:       staticAudioProvider{source: source},
		Log:         m.log,
		Model:       m.cfg.Provider.Model,
		Timeout:     m.cfg.Provider.NegotiationTimeout,
		OnFinalized: m.persist,
	})

	sess, err := orch.Connect(ctx, session.ConnectParams{
		Secret:       m.cfg.Provider.Secret,
		Voice:        voice,
		Instructions: instr,
	})
	if err != nil {
		source.Close()
		return nil, err
	}

	m.mu.Lock()
	m.live[sess.ID] = &liveSession{orch: orch, source: source}
	m.mu.Unlock()

	return sess, nil
}

// End disconnects a live session and returns the finalized result.
// Ending an already-ended but still-registered session returns the
// same finalized session.
func (m *SessionManager) End(id string) (*models.Session, error) {
	m.mu.Lock()
	ls, ok := m.live[id]
	delete(m.live, id)
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	final := ls.orch.Disconnect()
	if final == nil {
		return nil, ErrSessionNotFound
	}
	return final, nil
}

// ChangeVoice forwards a voice change to a live session. Unknown IDs
// are an error; a session that is no longer active logs and no-ops
// inside the orchestrator.
func (m *SessionManager) ChangeVoice(id, voice string) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ls.orch.ChangeVoice(models.NormalizeVoice(voice, m.cfg.Provider.DefaultVoice))
	return nil
}

// Subscribe registers a transcript listener on a live session.
func (m *SessionManager) Subscribe(id string, l session.TranscriptListener) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	ls.orch.Subscribe(l)
	return nil
}

// PushAudio feeds captured caller audio into a live session's outbound
// track. Frames for unknown sessions are rejected; frames that exceed
// the buffer are dropped as backpressure.
func (m *SessionManager) PushAudio(id string, frame realtime.AudioFrame) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if !ls.source.Push(frame) {
		m.log.WithField("session_id", id).Debug("Dropping audio frame, buffer full or source closed")
	}
	return nil
}

// persist runs once per session, on finalization, whatever caused it.
func (m *SessionManager) persist(sess *models.Session) {
	m.mu.Lock()
	delete(m.live, sess.ID)
	m.mu.Unlock()

	if m.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.repo.Create(ctx, sess); err != nil {
		m.log.WithError(err).WithField("session_id", sess.ID).Error("Failed to persist finalized session")
	}
}
