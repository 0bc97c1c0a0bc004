package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

const sourceColumns = `id, message_id, title, url, snippet, domain, favicon_url, published_date, relevance_score,
	display_order, content_type, word_count, language, click_count, last_clicked_at, created_at, metadata`

// AttachSources writes the batch of sources for a message and sets its
// sources_count, all in one transaction. ID, MessageID and CreatedAt are
// filled in on the passed slice. If any row fails nothing is kept and the
// count stays at its prior value.
func (s *SQLiteStore) AttachSources(ctx context.Context, messageID string, sources []domain.Source) error {
	now := time.Now().UTC()
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM messages WHERE id = ?`, messageID); err != nil {
			return mapError(err)
		}
		if exists == 0 {
			return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}

		if len(sources) > 0 {
			stmt, err := tx.PrepareNamedContext(ctx, `
				INSERT INTO message_sources (`+sourceColumns+`)
				VALUES (:id, :message_id, :title, :url, :snippet, :domain, :favicon_url, :published_date, :relevance_score,
					:display_order, :content_type, :word_count, :language, :click_count, :last_clicked_at, :created_at, :metadata)
			`)
			if err != nil {
				return mapError(err)
			}
			defer stmt.Close()

			for i := range sources {
				src := &sources[i]
				if src.ID == "" {
					src.ID = uuid.New().String()
				}
				src.MessageID = messageID
				if src.CreatedAt.IsZero() {
					src.CreatedAt = now
				}
				if _, err := stmt.ExecContext(ctx, src); err != nil {
					return mapError(err)
				}
			}
		}

		_, err := tx.ExecContext(ctx, `UPDATE messages SET sources_count = ? WHERE id = ?`, len(sources), messageID)
		return mapError(err)
	})
	if err != nil {
		return fmt.Errorf("failed to attach sources: %w", err)
	}
	return nil
}

// ListSources returns the sources of the given messages keyed by message ID,
// each list in display order.
func (s *SQLiteStore) ListSources(ctx context.Context, messageIDs []string) (map[string][]domain.Source, error) {
	out := make(map[string][]domain.Source, len(messageIDs))
	if len(messageIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+sourceColumns+` FROM message_sources
		WHERE message_id IN (?)
		ORDER BY message_id, display_order ASC
	`, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build sources query: %w", err)
	}
	var rows []domain.Source
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", mapError(err))
	}
	for _, src := range rows {
		out[src.MessageID] = append(out[src.MessageID], src)
	}
	return out, nil
}

// TrackSourceClick bumps the click counter of a source.
func (s *SQLiteStore) TrackSourceClick(ctx context.Context, sourceID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE message_sources SET click_count = click_count + 1, last_clicked_at = ? WHERE id = ?`, at, sourceID)
	if err != nil {
		return fmt.Errorf("failed to track source click: %w", mapError(err))
	}
	return requireAffected(res, "source", sourceID)
}

// SourceSessionID returns the ID of the session a source belongs to.
func (s *SQLiteStore) SourceSessionID(ctx context.Context, sourceID string) (string, error) {
	var sessionID string
	err := s.db.GetContext(ctx, &sessionID, `
		SELECT m.session_id FROM message_sources ms
		JOIN messages m ON m.id = ms.message_id
		WHERE ms.id = ?
	`, sourceID)
	if err != nil {
		return "", fmt.Errorf("failed to get source %s: %w", sourceID, mapError(err))
	}
	return sessionID, nil
}
