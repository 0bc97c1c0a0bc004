package helpers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/repository"
)

// NewTestSQLiteStore returns an in-memory store closed at test cleanup.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewFileSQLiteStore returns a store backed by a file in a temp dir, for
// tests that need several connections at once.
func NewFileSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "chat.db")
	s, err := repository.NewSQLiteStore(dsn)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedSession inserts an anonymous session with the default title.
func SeedSession(t *testing.T, s repository.Store) *domain.Session {
	t.Helper()

	now := time.Now().UTC()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Title:     domain.DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
		Metadata:  domain.Metadata{},
		Tags:      domain.Tags{},
	}
	if err := s.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session
}
