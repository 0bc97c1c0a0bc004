package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/S342D32/Mini-Perplexity/internal/domain"
	"github.com/S342D32/Mini-Perplexity/internal/service"
)

// SaveMessageRequest is the body of POST /api/messages.
type SaveMessageRequest struct {
	SessionID      string             `json:"session_id"`
	Type           string             `json:"type"`
	Content        string             `json:"content"`
	ModelUsed      *string            `json:"model_used"`
	TokensUsed     *int               `json:"tokens_used"`
	ResponseTimeMs *int               `json:"response_time_ms"`
	SearchQuery    *string            `json:"search_query"`
	Sources        []domain.RawSource `json:"sources"`
}

// FeedbackRequest is the body of POST /api/messages/:id/feedback.
type FeedbackRequest struct {
	Type      string  `json:"type"`
	Rating    *int    `json:"rating"`
	Text      *string `json:"text"`
	IsHelpful *bool   `json:"is_helpful"`
}

// SaveMessage appends a message to a session, with sources for answers.
// POST /api/messages
func (h *Handler) SaveMessage(c echo.Context) error {
	var req SaveMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.SessionID == "" {
		return badRequest(c, "session_id is required")
	}

	msg, err := h.service.SaveMessage(c.Request().Context(), service.SaveMessageInput{
		SessionID: req.SessionID,
		Type:      req.Type,
		Content:   req.Content,
		Meta: domain.MessageMeta{
			ModelUsed:      req.ModelUsed,
			TokensUsed:     req.TokensUsed,
			ResponseTimeMs: req.ResponseTimeMs,
			SearchQuery:    req.SearchQuery,
		},
		Sources: req.Sources,
	}, requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": msg})
}

// SubmitFeedback records a reaction to a message.
// POST /api/messages/:id/feedback
func (h *Handler) SubmitFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	_, err := h.service.SubmitFeedback(c.Request().Context(), c.Param("id"), service.FeedbackInput{
		Type:      req.Type,
		Rating:    req.Rating,
		Text:      req.Text,
		IsHelpful: req.IsHelpful,
		UserAgent: c.Request().UserAgent(),
	}, requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return success(c)
}

// TrackSourceClick counts a click on a citation.
// POST /api/sources/:id/click
func (h *Handler) TrackSourceClick(c echo.Context) error {
	if err := h.service.TrackSourceClick(c.Request().Context(), c.Param("id"), requester(c)); err != nil {
		return h.writeError(c, err)
	}
	return success(c)
}

// Analytics returns the dashboard summary.
// GET /api/analytics
func (h *Handler) Analytics(c echo.Context) error {
	summary, err := h.service.Analytics(c.Request().Context())
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
