// Package api provides the JSON handlers of the public /api surface.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/S342D32/Mini-Perplexity/internal/hub"
	"github.com/S342D32/Mini-Perplexity/internal/service"
)

// UserIDKey is the echo context key holding the authenticated user ID.
const UserIDKey = "user_id"

const (
	wsWriteTimeout   = 10 * time.Second
	wsReadTimeout    = 60 * time.Second
	wsPingInterval   = 30 * time.Second
	wsMaxMessageSize = 4096
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	hub      *hub.Hub
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler. h may be nil, in which case the
// websocket endpoint answers 503.
func NewHandler(svc *service.Service, h *hub.Hub, log *slog.Logger) *Handler {
	return &Handler{
		service: svc,
		hub:     h,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origins are enforced by the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the API routes. chat middleware only applies to
// POST /api/chat.
func (h *Handler) RegisterRoutes(e *echo.Echo, chat ...echo.MiddlewareFunc) {
	g := e.Group("/api")

	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.PUT("/sessions/:id", h.UpdateSession)
	g.DELETE("/sessions/:id", h.DeleteSession)
	g.POST("/sessions/:id/title", h.GenerateTitle)
	g.POST("/sessions/:id/archive", h.ArchiveSession)
	g.GET("/sessions/:id/ws", h.SessionEvents)

	g.POST("/messages", h.SaveMessage)
	g.POST("/messages/:id/feedback", h.SubmitFeedback)
	g.POST("/sources/:id/click", h.TrackSourceClick)

	g.POST("/chat", h.Chat, chat...)

	g.POST("/auth/signup", h.Signup)
	g.POST("/auth/login", h.Login)

	g.GET("/analytics", h.Analytics)

	e.GET("/health", h.Health)
}

// Health reports storage reachability and live subscriber count.
func (h *Handler) Health(c echo.Context) error {
	status, code := "healthy", http.StatusOK
	if err := h.service.Health(c.Request().Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	connections := 0
	if h.hub != nil {
		connections = h.hub.ConnectionCount()
	}
	return c.JSON(code, map[string]interface{}{
		"status":      status,
		"connections": connections,
	})
}

func requester(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func success(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
