package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
)

// SaveMessageInput is one message posted by the client, optionally with
// the sources of an assistant answer.
type SaveMessageInput struct {
	SessionID string
	Type      string
	Content   string
	Meta      domain.MessageMeta
	Sources   []domain.RawSource
}

// TurnInput is a question and its answer saved together.
type TurnInput struct {
	SessionID string
	Question  string
	Answer    string
	Meta      domain.MessageMeta
	Sources   []domain.RawSource
}

// NextSequenceNumber returns the number the next message of the session
// would get.
func (s *Service) NextSequenceNumber(ctx context.Context, sessionID string) (int, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.store.NextSequenceNumber(ctx, sessionID)
}

// AppendMessage adds a message at the end of a session. Sequence numbers
// are claimed by read-max-then-insert; a collision with a concurrent
// writer is retried with a fresh number up to AppendRetries times.
func (s *Service) AppendMessage(ctx context.Context, sessionID string, role domain.Role, content string, meta domain.MessageMeta) (*domain.Message, error) {
	switch {
	case strings.TrimSpace(sessionID) == "":
		return nil, fmt.Errorf("session id is required: %w", domain.ErrInvalidInput)
	case strings.TrimSpace(content) == "":
		return nil, fmt.Errorf("message content is required: %w", domain.ErrInvalidInput)
	case role != domain.RoleUser && role != domain.RoleAssistant:
		return nil, fmt.Errorf("unknown message role %q: %w", role, domain.ErrInvalidInput)
	}
	metadata := meta.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}

	backoffPolicy := retryPolicy{
		MaxRetries:   s.config.AppendRetries,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Multiplier:   2,
		Jitter:       true,
	}
	msg, err := retryWithPolicy(ctx, backoffPolicy, func(ctx context.Context) (*domain.Message, error) {
		ctx, cancel := s.storageCtx(ctx)
		defer cancel()

		seq, err := s.store.NextSequenceNumber(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		msg := &domain.Message{
			ID:             uuid.New().String(),
			SessionID:      sessionID,
			Role:           role,
			Content:        content,
			SequenceNumber: seq,
			CreatedAt:      s.now(),
			ModelUsed:      meta.ModelUsed,
			TokensUsed:     meta.TokensUsed,
			ResponseTimeMs: meta.ResponseTimeMs,
			SearchQuery:    meta.SearchQuery,
			Metadata:       metadata,
		}
		if err := s.store.InsertMessage(ctx, msg); err != nil {
			return nil, err
		}
		return msg, nil
	}, func(err error) bool {
		return errors.Is(err, domain.ErrConflict)
	}, func(attempt int, delay time.Duration, err error) {
		s.metrics.AppendConflict()
		s.log.Debug("sequence number taken, retrying", "session_id", sessionID, "attempt", attempt, "delay", delay)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	msg.Sources = []domain.Source{}

	s.publish(domain.EventMessageAppended, sessionID, msg)
	if role == domain.RoleUser {
		s.titleIfUntitled(ctx, sessionID)
	}
	return msg, nil
}

// titleIfUntitled derives a title for a session still carrying the default
// one. Failures are logged and otherwise ignored.
func (s *Service) titleIfUntitled(ctx context.Context, sessionID string) {
	sctx, cancel := s.storageCtx(ctx)
	session, err := s.store.GetSession(sctx, sessionID)
	cancel()
	if err != nil {
		s.log.Warn("auto title lookup failed", "session_id", sessionID, "error", err)
		return
	}
	if session.Title != domain.DefaultTitle {
		return
	}
	if _, err := s.deriveTitle(ctx, sessionID); err != nil {
		s.log.Warn("auto title failed", "session_id", sessionID, "error", err)
	}
}

// AttachSources stores the citations of an assistant message. Display
// order follows the input order.
func (s *Service) AttachSources(ctx context.Context, messageID string, raws []domain.RawSource) ([]domain.Source, error) {
	sctx, cancel := s.storageCtx(ctx)
	defer cancel()

	msg, err := s.store.GetMessage(sctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Role != domain.RoleAssistant {
		return nil, fmt.Errorf("sources can only be attached to assistant messages: %w", domain.ErrInvalidInput)
	}

	sources := domain.NormalizeSources(raws)
	if err := s.store.AttachSources(sctx, messageID, sources); err != nil {
		return nil, err
	}
	s.publish(domain.EventSourcesAttached, msg.SessionID, map[string]any{
		"message_id": messageID,
		"count":      len(sources),
	})
	return sources, nil
}

// SaveMessage validates and stores a message posted by the client. Sources
// are kept only for assistant messages.
func (s *Service) SaveMessage(ctx context.Context, in SaveMessageInput, requester string) (*domain.Message, error) {
	role, ok := domain.ParseRole(in.Type)
	if !ok {
		return nil, fmt.Errorf("unknown message type %q: %w", in.Type, domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("message content is required: %w", domain.ErrInvalidInput)
	}
	if err := s.checkAccess(ctx, in.SessionID, requester, policy.ActionWrite); err != nil {
		return nil, err
	}

	msg, err := s.AppendMessage(ctx, in.SessionID, role, in.Content, in.Meta)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAssistant || len(in.Sources) == 0 {
		return msg, nil
	}

	sources, err := s.AttachSources(ctx, msg.ID, in.Sources)
	if err != nil {
		return nil, err
	}
	msg.Sources = sources
	msg.SourcesCount = len(sources)
	return msg, nil
}

// SaveTurn stores a question and its answer, the answer with its sources.
func (s *Service) SaveTurn(ctx context.Context, in TurnInput, requester string) (*domain.Message, *domain.Message, error) {
	if strings.TrimSpace(in.Question) == "" || strings.TrimSpace(in.Answer) == "" {
		return nil, nil, fmt.Errorf("question and answer are required: %w", domain.ErrInvalidInput)
	}
	if err := s.checkAccess(ctx, in.SessionID, requester, policy.ActionWrite); err != nil {
		return nil, nil, err
	}

	question, err := s.AppendMessage(ctx, in.SessionID, domain.RoleUser, in.Question, domain.MessageMeta{})
	if err != nil {
		return nil, nil, err
	}
	answer, err := s.AppendMessage(ctx, in.SessionID, domain.RoleAssistant, in.Answer, in.Meta)
	if err != nil {
		return nil, nil, err
	}
	sources, err := s.AttachSources(ctx, answer.ID, in.Sources)
	if err != nil {
		return nil, nil, err
	}
	answer.Sources = sources
	answer.SourcesCount = len(sources)
	return question, answer, nil
}

// ConversationContext returns the latest messages of a session, oldest
// first, for use as model context.
func (s *Service) ConversationContext(ctx context.Context, sessionID string) ([]domain.Message, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.store.RecentMessages(ctx, sessionID, s.config.ContextMessages)
}
