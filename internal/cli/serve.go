package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/S342D32/Mini-Perplexity/internal/adapter/llm"
	"github.com/S342D32/Mini-Perplexity/internal/config"
	"github.com/S342D32/Mini-Perplexity/internal/hub"
	"github.com/S342D32/Mini-Perplexity/internal/logger"
	"github.com/S342D32/Mini-Perplexity/internal/metrics"
	"github.com/S342D32/Mini-Perplexity/internal/policy"
	"github.com/S342D32/Mini-Perplexity/internal/repository"
	"github.com/S342D32/Mini-Perplexity/internal/search"
	"github.com/S342D32/Mini-Perplexity/internal/service"
	transport "github.com/S342D32/Mini-Perplexity/internal/transport/http"
)

func newServeCommand() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = port
			}
			return serve(cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides HTTP_PORT)")
	return cmd
}

func serve(cfg *config.Config) error {
	log := logger.New(cfg.LogLevel)
	log.Info("starting server", "port", cfg.HTTPPort, "database", cfg.DatabaseURL, "mode", cfg.Mode)

	store, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	events := hub.New(log)
	go events.Run(ctx)

	m := metrics.New()
	svc := service.New(store, search.New(cfg, log), llm.NewGenerator(cfg, log), events, policyEngine, m, cfg, log)
	server := transport.NewServer(cfg, svc, events, m, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info("API started", "port", cfg.HTTPPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown server gracefully", "error", err)
	}
	log.Info("server stopped")
	return nil
}
