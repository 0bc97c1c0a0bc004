package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mileusna/useragent"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
)

// FeedbackInput is a user's reaction to a message.
type FeedbackInput struct {
	Type      string
	Rating    *int
	Text      *string
	IsHelpful *bool
	UserAgent string
}

// SubmitFeedback records feedback on a message. Without an explicit type,
// the helpful flag picks thumbs up or down.
func (s *Service) SubmitFeedback(ctx context.Context, messageID string, in FeedbackInput, requester string) (*domain.Feedback, error) {
	fbType := domain.FeedbackType(strings.ToLower(strings.TrimSpace(in.Type)))
	if fbType == "" && in.IsHelpful != nil {
		fbType = domain.FeedbackThumbsDown
		if *in.IsHelpful {
			fbType = domain.FeedbackThumbsUp
		}
	}
	if !fbType.Valid() {
		return nil, fmt.Errorf("unknown feedback type %q: %w", in.Type, domain.ErrInvalidInput)
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", domain.ErrInvalidInput)
	}
	text := in.Text
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		text = &trimmed
		if trimmed == "" {
			text = nil
		}
	}

	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, msg.SessionID, requester, policy.ActionWrite); err != nil {
		return nil, err
	}

	ua := useragent.Parse(in.UserAgent)
	fb := &domain.Feedback{
		ID:           uuid.New().String(),
		MessageID:    msg.ID,
		SessionID:    msg.SessionID,
		FeedbackType: fbType,
		Rating:       in.Rating,
		Text:         text,
		IsHelpful:    in.IsHelpful,
		UserAgent:    in.UserAgent,
		Browser:      ua.Name,
		OS:           ua.OS,
		Device:       deviceOf(ua),
		CreatedAt:    s.now(),
	}
	if err := s.store.SaveFeedback(ctx, fb); err != nil {
		return nil, err
	}
	return fb, nil
}

func deviceOf(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Tablet:
		return "tablet"
	case ua.Mobile:
		return "mobile"
	case ua.Desktop:
		return "desktop"
	default:
		return "unknown"
	}
}

// TrackSourceClick counts a click on a citation of a session requester
// may write to.
func (s *Service) TrackSourceClick(ctx context.Context, sourceID, requester string) error {
	if strings.TrimSpace(sourceID) == "" {
		return fmt.Errorf("source id is required: %w", domain.ErrInvalidInput)
	}
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()

	sessionID, err := s.store.SourceSessionID(ctx, sourceID)
	if err != nil {
		return err
	}
	if err := s.checkAccess(ctx, sessionID, requester, policy.ActionWrite); err != nil {
		return err
	}
	return s.store.TrackSourceClick(ctx, sourceID, s.now())
}

// Analytics returns the dashboard summary.
func (s *Service) Analytics(ctx context.Context) (*domain.AnalyticsSummary, error) {
	ctx, cancel := s.storageCtx(ctx)
	defer cancel()
	return s.store.AnalyticsSummary(ctx, 10)
}
