package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
)

// CreateSessionInput is the request to open a new session.
type CreateSessionInput struct {
	Title    string
	UserID   *string
	Metadata domain.Metadata
	Tags     domain.Tags
}

// CreateSession opens a session owned by requester, or by in.UserID when the
// request is anonymous.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput, requester string) (*domain.Session, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domain.DefaultTitle
	}
	owner := in.UserID
	if requester != "" {
		owner = &requester
	} else if owner != nil && strings.TrimSpace(*owner) == "" {
		owner = nil
	}
	metadata := in.Metadata
	if metadata == nil {
		metadata = domain.Metadata{}
	}
	tags := in.Tags
	if tags == nil {
		tags = domain.Tags{}
	}

	now := s.now()
	session := &domain.Session{
		ID:        uuid.New().String(),
		Title:     title,
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
		IsActive:  true,
		Metadata:  metadata,
		Tags:      tags,
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions returns the requester's active sessions, most recently
// updated first. Anonymous requesters see anonymous sessions.
func (s *Service) ListSessions(ctx context.Context, requester string) ([]domain.Session, error) {
	var owner *string
	if requester != "" {
		owner = &requester
	}
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.store.ListRecentSessions(ctx, owner, s.config.SessionPageSize)
}

// LoadSession returns a session with its messages in sequence order, each
// carrying its sources in display order.
func (s *Service) LoadSession(ctx context.Context, sessionID, requester string) (*domain.SessionDetail, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, session, requester, policy.ActionRead); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.SourcesCount > 0 {
			ids = append(ids, m.ID)
		}
	}
	sources, err := s.store.ListSources(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Sources = sources[messages[i].ID]
		if messages[i].Sources == nil {
			messages[i].Sources = []domain.Source{}
		}
	}

	return &domain.SessionDetail{Session: *session, Messages: messages}, nil
}

// RenameSession sets an explicit title.
func (s *Service) RenameSession(ctx context.Context, sessionID, title, requester string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if err := s.checkAccess(ctx, sessionID, requester, policy.ActionWrite); err != nil {
		return err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	if err := s.store.UpdateSessionTitle(ctx, sessionID, title, s.now()); err != nil {
		return err
	}
	s.publish(domain.EventSessionRenamed, sessionID, map[string]string{"title": title})
	return nil
}

// AutoGenerateTitle derives the title from the first user message and
// stores it. A session without user messages gets the default title back
// and nothing is written.
func (s *Service) AutoGenerateTitle(ctx context.Context, sessionID, requester string) (string, error) {
	if err := s.checkAccess(ctx, sessionID, requester, policy.ActionWrite); err != nil {
		return "", err
	}
	return s.deriveTitle(ctx, sessionID)
}

func (s *Service) deriveTitle(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	first, err := s.store.FirstUserMessage(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if first == nil {
		return domain.DefaultTitle, nil
	}

	title := domain.DeriveTitle(first.Content)
	if err := s.store.UpdateSessionTitle(ctx, sessionID, title, s.now()); err != nil {
		return "", err
	}
	s.publish(domain.EventSessionRenamed, sessionID, map[string]string{"title": title})
	return title, nil
}

// ArchiveSession hides a session from listings without deleting it.
func (s *Service) ArchiveSession(ctx context.Context, sessionID, requester string) error {
	if err := s.checkAccess(ctx, sessionID, requester, policy.ActionWrite); err != nil {
		return err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	if err := s.store.ArchiveSession(ctx, sessionID, s.now()); err != nil {
		return err
	}
	s.publish(domain.EventSessionArchived, sessionID, nil)
	return nil
}

// DeleteSession removes a session with its messages and sources. Deleting
// a session that does not exist succeeds.
func (s *Service) DeleteSession(ctx context.Context, sessionID, requester string) error {
	err := s.checkAccess(ctx, sessionID, requester, policy.ActionDelete)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.publish(domain.EventSessionDeleted, sessionID, nil)
	return nil
}

// CanSubscribe reports whether requester may follow a session's events.
func (s *Service) CanSubscribe(ctx context.Context, sessionID, requester string) error {
	return s.checkAccess(ctx, sessionID, requester, policy.ActionRead)
}

// checkAccess loads the session and checks action against the policy.
func (s *Service) checkAccess(ctx context.Context, sessionID, requester, action string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required: %w", domain.ErrInvalidInput)
	}
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	return s.authorize(ctx, session, requester, action)
}
