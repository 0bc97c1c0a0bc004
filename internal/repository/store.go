// Package repository is the query layer over the relational chat store.
package repository

import (
	"context"
	"time"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
)

// Store defines the interface for chat persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListRecentSessions(ctx context.Context, userID *string, limit int) ([]domain.Session, error)
	UpdateSessionTitle(ctx context.Context, sessionID, title string, at time.Time) error
	ArchiveSession(ctx context.Context, sessionID string, at time.Time) error
	DeleteSession(ctx context.Context, sessionID string) error

	// Message operations
	NextSequenceNumber(ctx context.Context, sessionID string) (int, error)
	InsertMessage(ctx context.Context, msg *domain.Message) error
	GetMessage(ctx context.Context, messageID string) (*domain.Message, error)
	FirstUserMessage(ctx context.Context, sessionID string) (*domain.Message, error)
	ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)
	SaveFeedback(ctx context.Context, fb *domain.Feedback) error

	// Source operations
	AttachSources(ctx context.Context, messageID string, sources []domain.Source) error
	ListSources(ctx context.Context, messageIDs []string) (map[string][]domain.Source, error)
	TrackSourceClick(ctx context.Context, sourceID string, at time.Time) error
	SourceSessionID(ctx context.Context, sourceID string) (string, error)

	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Analytics operations
	SaveSearchRecord(ctx context.Context, rec *domain.SearchRecord) error
	AnalyticsSummary(ctx context.Context, topDomains int) (*domain.AnalyticsSummary, error)

	Ping(ctx context.Context) error
	Close() error
}
