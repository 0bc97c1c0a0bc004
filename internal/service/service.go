// Package service is the chat service facade used by the HTTP layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/S342D32/Mini-Perplexity/internal/adapter/llm"
	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/hub"
	"github.com/S342D32/Mini-Perplexity/internal/metrics"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
	"github.com/S342D32/Mini-Perplexity/internal/repository"
	"github.com/S342D32/Mini-Perplexity/internal/search"
)

type Service struct {
	store        repository.Store
	searcher     search.Searcher
	generator    llm.Generator
	events       hub.Publisher
	policyEngine *policy.Engine
	metrics      *metrics.Metrics
	config       *config.Config
	log          *slog.Logger
	now          func() time.Time
}

// New wires the service. events, policyEngine and m may be nil.
func New(store repository.Store, searcher search.Searcher, generator llm.Generator, events hub.Publisher,
	policyEngine *policy.Engine, m *metrics.Metrics, cfg *config.Config, log *slog.Logger) *Service {
	if events == nil {
		events = hub.Discard{}
	}
	return &Service{
		store:        store,
		searcher:     searcher,
		generator:    generator,
		events:       events,
		policyEngine: policyEngine,
		metrics:      m,
		config:       cfg,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Health reports whether storage is reachable.
func (s *Service) Health(ctx context.Context) error {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.store.Ping(ctx)
}

// storageCtx bounds one storage call.
func (s *Service) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return withTimeout(ctx, s.config.StorageTimeout)
}

// withTimeout is context.WithTimeout where a zero duration means no limit.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// authorize checks the access policy for requester on session.
func (s *Service) authorize(ctx context.Context, session *domain.Session, requester, action string) error {
	if s.policyEngine == nil {
		return nil
	}
	owner := ""
	if session.UserID != nil {
		owner = *session.UserID
	}
	allowed, err := s.policyEngine.Allowed(ctx, policy.Input{Action: action, UserID: requester, OwnerID: owner})
	if err != nil {
		return fmt.Errorf("failed to check session access: %w", err)
	}
	if !allowed {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrForbidden)
	}
	return nil
}

func (s *Service) publish(eventType domain.EventType, sessionID string, payload any) {
	s.events.Publish(domain.SessionEvent{
		Type:      eventType,
		SessionID: sessionID,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
	})
}
