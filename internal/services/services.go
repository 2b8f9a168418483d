package services

import (
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/solace/solace-backend/internal/config"
	"github.com/solace/solace-backend/internal/gateway"
	"github.com/solace/solace-backend/internal/realtime"
	"github.com/solace/solace-backend/internal/repository"
	"github.com/solace/solace-backend/internal/repository/postgres"
)

// Services holds all service instances.
type Services struct {
	Manager  *SessionManager
	Gateway  *gateway.Client
	Summary  *SummaryService
	Sessions repository.SessionRepository
	Config   *config.Config
	Log      *logrus.Logger
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, db *sqlx.DB, log *logrus.Logger) *Services {
	gw := gateway.NewClient(cfg.Provider.BaseURL, cfg.Provider.NegotiationTimeout, log)
	sessionRepo := postgres.NewSessionRepository(db)
	summary := NewSummaryService(cfg.Summary, log)

	var transport realtime.Transport
	switch cfg.Provider.Transport {
	case "websocket":
		transport = realtime.NewWebSocketTransport(cfg.Provider.WSBaseURL, log)
	default:
		transport = realtime.NewWebRTCTransport(cfg.Provider.BaseURL, nil, log)
	}

	manager := NewSessionManager(cfg, gw, transport, sessionRepo, log)

	return &Services{
		Manager:  manager,
		Gateway:  gw,
		Summary:  summary,
		Sessions: sessionRepo,
		Config:   cfg,
		Log:      log,
	}
}
