package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

const messageColumns = `id, session_id, role, content, sequence_number, created_at, model_used, tokens_used,
	response_time_ms, search_query, sources_count, feedback_rating, feedback_text, is_helpful, metadata`

// NextSequenceNumber returns max(sequence_number)+1 for the session, or 1.
func (s *SQLiteStore) NextSequenceNumber(ctx context.Context, sessionID string) (int, error) {
	var next int
	err := s.db.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(sequence_number), 0) + 1 FROM messages WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get next sequence number: %w", mapError(err))
	}
	return next, nil
}

// InsertMessage writes msg and refreshes the owning session's counter and
// timestamp in the same transaction. A sequence number already taken in the
// session yields domain.ErrConflict.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO messages (`+messageColumns+`)
			VALUES (:id, :session_id, :role, :content, :sequence_number, :created_at, :model_used, :tokens_used,
				:response_time_ms, :search_query, :sources_count, :feedback_rating, :feedback_text, :is_helpful, :metadata)
		`, msg); err != nil {
			return mapError(err)
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE sessions
			SET message_count = (SELECT COUNT(*) FROM messages WHERE session_id = ?),
				updated_at = ?
			WHERE id = ?
		`, msg.SessionID, msg.CreatedAt, msg.SessionID)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(res, "session", msg.SessionID)
	})
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := s.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, mapError(err))
	}
	return &msg, nil
}

// FirstUserMessage returns the earliest user message of a session, or nil
// when the session has none.
func (s *SQLiteStore) FirstUserMessage(ctx context.Context, sessionID string) (*domain.Message, error) {
	var msgs []domain.Message
	err := s.db.SelectContext(ctx, &msgs, `
		SELECT `+messageColumns+` FROM messages
		WHERE session_id = ? AND role = ?
		ORDER BY sequence_number ASC
		LIMIT 1
	`, sessionID, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to get first user message: %w", mapError(err))
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// ListMessages returns every message of a session in sequence order.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	msgs := []domain.Message{}
	err := s.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE session_id = ? ORDER BY sequence_number ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", mapError(err))
	}
	return msgs, nil
}

// RecentMessages returns the last limit messages of a session, oldest first.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	msgs := []domain.Message{}
	err := s.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE session_id = ?
			ORDER BY sequence_number DESC
			LIMIT ?
		) ORDER BY sequence_number ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", mapError(err))
	}
	return msgs, nil
}

// SaveFeedback records fb and copies its rating, text and helpful flag onto
// the message.
func (s *SQLiteStore) SaveFeedback(ctx context.Context, fb *domain.Feedback) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE messages
			SET feedback_rating = COALESCE(?, feedback_rating),
				feedback_text = COALESCE(?, feedback_text),
				is_helpful = COALESCE(?, is_helpful)
			WHERE id = ?
		`, fb.Rating, fb.Text, fb.IsHelpful, fb.MessageID)
		if err != nil {
			return mapError(err)
		}
		if err := requireAffected(res, "message", fb.MessageID); err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO message_feedback (id, message_id, session_id, feedback_type, rating, text, is_helpful,
				user_agent, browser, os, device, created_at)
			VALUES (:id, :message_id, :session_id, :feedback_type, :rating, :text, :is_helpful,
				:user_agent, :browser, :os, :device, :created_at)
		`, fb)
		return mapError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}
	return nil
}
