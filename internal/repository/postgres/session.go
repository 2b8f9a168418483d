package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/solace/solace-backend/internal/models"
	"github.com/solace/solace-backend/internal/repository"
)

// SessionRepository implements repository.SessionRepository using
// PostgreSQL. Transcript, milestones and cards are stored as JSONB
// documents; their embedded timestamps serialize as ISO-8601 strings.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository.
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

type sessionRow struct {
	ID            string     `db:"id"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	DurationMs    int64      `db:"duration_ms"`
	Transcript    []byte     `db:"transcript"`
	Milestones    []byte     `db:"milestones"`
	ProgressCards []byte     `db:"progress_cards"`
	Summary       string     `db:"summary"`
	CreatedAt     time.Time  `db:"created_at"`
}

func toRow(sess *models.Session) (*sessionRow, error) {
	transcript, err := json.Marshal(sess.Transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript: %w", err)
	}
	milestones, err := json.Marshal(sess.Milestones)
	if err != nil {
		return nil, fmt.Errorf("failed to encode milestones: %w", err)
	}
	cards, err := json.Marshal(sess.ProgressCards)
	if err != nil {
		return nil, fmt.Errorf("failed to encode progress cards: %w", err)
	}

	return &sessionRow{
		ID:            sess.ID,
		StartTime:     sess.StartTime,
		EndTime:       sess.EndTime,
		DurationMs:    sess.Duration.Milliseconds(),
		Transcript:    transcript,
		Milestones:    milestones,
		ProgressCards: cards,
		Summary:       sess.Summary,
		CreatedAt:     time.Now(),
	}, nil
}

func fromRow(row *sessionRow) (*models.Session, error) {
	sess := &models.Session{
		ID:        row.ID,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Duration:  time.Duration(row.DurationMs) * time.Millisecond,
		Summary:   row.Summary,
	}
	if err := json.Unmarshal(row.Transcript, &sess.Transcript); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if err := json.Unmarshal(row.Milestones, &sess.Milestones); err != nil {
		return nil, fmt.Errorf("failed to decode milestones: %w", err)
	}
	if err := json.Unmarshal(row.ProgressCards, &sess.ProgressCards); err != nil {
		return nil, fmt.Errorf("failed to decode progress cards: %w", err)
	}
	return sess, nil
}

// Create stores a finalized session.
func (r *SessionRepository) Create(ctx context.Context, sess *models.Session) error {
	row, err := toRow(sess)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sessions (id, start_time, end_time, duration_ms, transcript, milestones, progress_cards, summary, created_at)
		VALUES (:id, :start_time, :end_time, :duration_ms, :transcript, :milestones, :progress_cards, :summary, :created_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, row)
	return err
}

// Get retrieves a session by ID. A missing session returns (nil, nil).
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	var row sessionRow
	query := `
		SELECT id, start_time, end_time, duration_ms, transcript, milestones, progress_cards, summary, created_at
		FROM sessions
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return fromRow(&row)
}

// List returns stored sessions, most recent first.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]*models.Session, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []sessionRow
	query := `
		SELECT id, start_time, end_time, duration_ms, transcript, milestones, progress_cards, summary, created_at
		FROM sessions
		ORDER BY start_time DESC
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(rows))
	for i := range rows {
		sess, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// Delete removes a stored session.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
