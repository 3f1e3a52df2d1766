// Command arrifai runs the chat relay server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/arrifai/internal/adapter/llm"
	"github.com/xiaot623/arrifai/internal/config"
	"github.com/xiaot623/arrifai/internal/hub"
	"github.com/xiaot623/arrifai/internal/metrics"
	"github.com/xiaot623/arrifai/internal/repository"
	"github.com/xiaot623/arrifai/internal/service"
	handler "github.com/xiaot623/arrifai/internal/transport/http"
	"github.com/xiaot623/arrifai/internal/transport/ws"
	"github.com/xiaot623/arrifai/policy"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	envFile string
	port    int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &serveOptions{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket chat relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "arrifai",
		Short:        "ARRIFAI chat relay",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}

	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "optional .env file loaded before reading the environment")
		cmd.Flags().IntVar(&opts.port, "port", 0, "HTTP port (overrides HTTP_PORT)")
	}
	rootCmd.AddCommand(serveCmd)

	return rootCmd
}

func serve(ctx context.Context, opts *serveOptions) error {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return err
	}
	if opts.port > 0 {
		cfg.HTTPPort = opts.port
	}

	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))
	slog.Info("starting arrifai",
		"port", cfg.HTTPPort,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"database", cfg.DatabaseURL,
	)

	// Event log is optional.
	var events service.EventStore
	if cfg.DatabaseURL != "" {
		db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize event log: %w", err)
		}
		defer db.Close()
		events = db
	}

	llmClient, err := llm.NewLLMClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize llm client: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policyEngine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	m := metrics.New()
	svc := service.New(cfg, events, llmClient, policyEngine, m)

	connectionHub := hub.NewHub()
	wsServer := ws.NewServer(cfg, connectionHub, svc)
	e := handler.NewServer(svc, m, wsServer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		connectionHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		slog.Info("http server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down arrifai")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to shutdown http server gracefully", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "error", err)
		return err
	}
	slog.Info("arrifai stopped")
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
