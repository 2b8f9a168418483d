// Package repository defines the persistence contracts for finalized
// sessions. The core only ever writes here; history browsing is an
// external, read-side concern.
package repository

import (
	"context"

	"github.com/solace/solace-backend/internal/models"
)

// SessionRepository stores finalized sessions.
type SessionRepository interface {
	Create(ctx context.Context, sess *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, limit int) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
}
