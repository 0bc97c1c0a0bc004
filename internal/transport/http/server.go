// Package http assembles the public HTTP server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/cors"

	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/hub"
	"github.com/S342D32/Mini-Perplexity/internal/metrics"
	"github.com/S342D32/Mini-Perplexity/internal/service"
	"github.com/S342D32/Mini-Perplexity/internal/transport/http/api"
)

// Server is the public HTTP server.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer creates the server and registers every route.
func NewServer(cfg *config.Config, svc *service.Service, h *hub.Hub, m *metrics.Metrics, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler))
	e.Use(Authenticate(svc))

	limiter := newLimiterPool(cfg.ChatRPS, cfg.ChatBurst)
	api.NewHandler(svc, h, log).RegisterRoutes(e, rateLimit(limiter, m))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	return &Server{
		echo: e,
		addr: fmt.Sprintf(":%d", cfg.HTTPPort),
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured port until Shutdown.
func (s *Server) Start() error {
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
