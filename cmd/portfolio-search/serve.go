package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/portfolio-search/internal/logging"
	"github.com/dshills/portfolio-search/internal/mcp"
	"github.com/dshills/portfolio-search/internal/pipeline"
	"github.com/dshills/portfolio-search/internal/server"
	"github.com/dshills/portfolio-search/internal/telemetry"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP search API",
	Long: `
Start the HTTP API on PORTFOLIO_HTTP_ADDR. The index is warmed in the
background; /readyz reports 503 until content can be loaded.

Search sessions (debounced search-as-you-type) are created with POST /sessions
and expire after PORTFOLIO_SESSION_IDLE_TTL of inactivity.
`,
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve MCP tools on stdio",
	RunE:  runMCP,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder, err := telemetry.NewOTel(nil, telemetry.DefaultBuffer, logging.Component(a.logger, "telemetry"))
	if err != nil {
		return fmt.Errorf("failed to create telemetry recorder: %w", err)
	}
	defer recorder.Close()

	registry := pipeline.NewRegistry(a.searcher, a.cfg.SessionIdleTTL,
		pipeline.WithDebounce(a.cfg.Debounce),
		pipeline.WithMinInterval(a.cfg.MinInterval),
		pipeline.WithTelemetry(recorder),
		pipeline.WithLogger(logging.Component(a.logger, "pipeline")),
	)
	defer registry.Close()

	srv := server.New(a.searcher, registry, server.Config{
		RateLimit: a.cfg.RateLimit,
		RateBurst: a.cfg.RateBurst,
	}, logging.Component(a.logger, "http"))

	go func() {
		if err := a.searcher.Warm(ctx); err != nil {
			a.logger.Warn("initial index build failed", "error", err)
		}
	}()
	go sweepSessions(ctx, registry, a)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(a.cfg.HTTPAddr) }()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if n := recorder.Dropped(); n > 0 {
		a.logger.Warn("telemetry events dropped", "count", n)
	}
	return nil
}

func sweepSessions(ctx context.Context, registry *pipeline.Registry, a *app) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(); n > 0 {
				a.logger.Debug("expired idle sessions", "count", n, "active", registry.Len())
			}
		}
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := mcp.NewServer(a.searcher, logging.Component(a.logger, "mcp"))
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	a.logger.Info("mcp server stopped")
	return nil
}
