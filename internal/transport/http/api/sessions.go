package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/S342D32/Mini-Perplexity/internal/service"
)

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Title    string                 `json:"title"`
	UserID   *string                `json:"user_id"`
	Metadata map[string]interface{} `json:"metadata"`
	Tags     []string               `json:"tags"`
}

// UpdateSessionRequest is the body of PUT /api/sessions/:id.
type UpdateSessionRequest struct {
	Title string `json:"title"`
}

// CreateSession creates a new chat session.
// POST /api/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	session, err := h.service.CreateSession(c.Request().Context(), service.CreateSessionInput{
		Title:    req.Title,
		UserID:   req.UserID,
		Metadata: req.Metadata,
		Tags:     req.Tags,
	}, requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": session})
}

// ListSessions returns the most recently updated sessions.
// GET /api/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.service.ListSessions(c.Request().Context(), requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// GetSession returns a session with its messages and their sources.
// GET /api/sessions/:id
func (h *Handler) GetSession(c echo.Context) error {
	detail, err := h.service.LoadSession(c.Request().Context(), c.Param("id"), requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"session": detail})
}

// UpdateSession renames a session.
// PUT /api/sessions/:id
func (h *Handler) UpdateSession(c echo.Context) error {
	var req UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.service.RenameSession(c.Request().Context(), c.Param("id"), req.Title, requester(c)); err != nil {
		return h.writeError(c, err)
	}
	return success(c)
}

// DeleteSession deletes a session and everything in it.
// DELETE /api/sessions/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.service.DeleteSession(c.Request().Context(), c.Param("id"), requester(c)); err != nil {
		return h.writeError(c, err)
	}
	return success(c)
}

// GenerateTitle derives the session title from its first question.
// POST /api/sessions/:id/title
func (h *Handler) GenerateTitle(c echo.Context) error {
	title, err := h.service.AutoGenerateTitle(c.Request().Context(), c.Param("id"), requester(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"title": title})
}

// ArchiveSession hides a session from the listing.
// POST /api/sessions/:id/archive
func (h *Handler) ArchiveSession(c echo.Context) error {
	if err := h.service.ArchiveSession(c.Request().Context(), c.Param("id"), requester(c)); err != nil {
		return h.writeError(c, err)
	}
	return success(c)
}
