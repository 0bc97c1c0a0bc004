package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

const sessionColumns = `id, title, user_id, created_at, updated_at, is_active, message_count, metadata, tags`

// CreateSession inserts a new session row.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (:id, :title, :user_id, :created_at, :updated_at, :is_active, :message_count, :metadata, :tags)
	`, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapError(err))
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.GetContext(ctx, &session, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, mapError(err))
	}
	return &session, nil
}

// ListRecentSessions returns active sessions, most recently updated first.
// A nil userID selects anonymous sessions.
func (s *SQLiteStore) ListRecentSessions(ctx context.Context, userID *string, limit int) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE is_active = 1 AND user_id IS NULL`
	args := []any{}
	if userID != nil {
		query = `SELECT ` + sessionColumns + ` FROM sessions WHERE is_active = 1 AND user_id = ?`
		args = append(args, *userID)
	}
	query += ` ORDER BY updated_at DESC, id LIMIT ?`
	args = append(args, limit)

	sessions := []domain.Session{}
	if err := s.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", mapError(err))
	}
	return sessions, nil
}

// UpdateSessionTitle renames a session.
func (s *SQLiteStore) UpdateSessionTitle(ctx context.Context, sessionID, title string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, at, sessionID)
	if err != nil {
		return fmt.Errorf("failed to update session title: %w", mapError(err))
	}
	return requireAffected(res, "session", sessionID)
}

// ArchiveSession soft-deletes a session by clearing its active flag.
func (s *SQLiteStore) ArchiveSession(ctx context.Context, sessionID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET is_active = 0, updated_at = ? WHERE id = ?`, at, sessionID)
	if err != nil {
		return fmt.Errorf("failed to archive session: %w", mapError(err))
	}
	return requireAffected(res, "session", sessionID)
}

// DeleteSession removes a session; messages and sources go with it through
// ON DELETE CASCADE. Deleting a missing session is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", mapError(err))
	}
	return nil
}
