package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// CreateUser inserts a user. A taken email yields domain.ErrConflict.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (:id, :email, :name, :password_hash, :created_at)
	`, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

// GetUserByEmail returns the user with the given email, or nil.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var users []domain.User
	err := s.db.SelectContext(ctx, &users,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = ? LIMIT 1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// SaveSearchRecord stores one search performed for a chat question.
func (s *SQLiteStore) SaveSearchRecord(ctx context.Context, rec *domain.SearchRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO search_analytics (id, session_id, query, results_count, search_duration_ms, provider,
			provider_metadata, created_at)
		VALUES (:id, :session_id, :query, :results_count, :search_duration_ms, :provider,
			:provider_metadata, :created_at)
	`, rec)
	if err != nil {
		return fmt.Errorf("failed to save search record: %w", mapError(err))
	}
	return nil
}

// AnalyticsSummary aggregates usage counters for the dashboard.
func (s *SQLiteStore) AnalyticsSummary(ctx context.Context, topDomains int) (*domain.AnalyticsSummary, error) {
	summary := &domain.AnalyticsSummary{
		TopDomains: []domain.DomainCount{},
		Feedback:   map[string]int{},
	}

	counters := []struct {
		dest  *int
		query string
	}{
		{&summary.TotalSessions, `SELECT COUNT(*) FROM sessions`},
		{&summary.ActiveSessions, `SELECT COUNT(*) FROM sessions WHERE is_active = 1`},
		{&summary.TotalMessages, `SELECT COUNT(*) FROM messages`},
		{&summary.TotalSources, `SELECT COUNT(*) FROM message_sources`},
		{&summary.TotalSourceClicks, `SELECT COALESCE(SUM(click_count), 0) FROM message_sources`},
		{&summary.TotalSearches, `SELECT COUNT(*) FROM search_analytics`},
	}
	for _, c := range counters {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, fmt.Errorf("failed to compute analytics: %w", mapError(err))
		}
	}

	var avg sql.NullFloat64
	if err := s.db.GetContext(ctx, &avg, `SELECT AVG(search_duration_ms) FROM search_analytics`); err != nil {
		return nil, fmt.Errorf("failed to compute analytics: %w", mapError(err))
	}
	summary.AvgSearchDurationMs = avg.Float64

	if err := s.db.SelectContext(ctx, &summary.TopDomains, `
		SELECT domain, COUNT(*) AS count FROM message_sources
		GROUP BY domain
		ORDER BY count DESC, domain ASC
		LIMIT ?
	`, topDomains); err != nil {
		return nil, fmt.Errorf("failed to compute top domains: %w", mapError(err))
	}

	var feedback []struct {
		Type  string `db:"feedback_type"`
		Count int    `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &feedback,
		`SELECT feedback_type, COUNT(*) AS count FROM message_feedback GROUP BY feedback_type`); err != nil {
		return nil, fmt.Errorf("failed to compute feedback counts: %w", mapError(err))
	}
	for _, f := range feedback {
		summary.Feedback[f.Type] = f.Count
	}
	return summary, nil
}
