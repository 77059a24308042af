package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/telhawk-systems/telhawk-iris/internal/handlers"
	natsintake "github.com/telhawk-systems/telhawk-iris/internal/nats"
	"github.com/telhawk-systems/telhawk-iris/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch service",
	Long:  `Loads rule definitions, subscribes to triggered detections on NATS and serves the HTTP API.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	registry, err := loadRegistry(log)
	if err != nil {
		return err
	}
	log.Info("rules loaded", slog.Int("count", len(registry.Names())))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS intake
	if cfg.NATS.Enabled {
		conn, err := nats.Connect(cfg.NATS.URL,
			nats.Name("iris-dispatch"),
			nats.MaxReconnects(cfg.NATS.MaxReconnects),
			nats.ReconnectWait(cfg.NATS.ReconnectWait),
		)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer conn.Close()

		intake := natsintake.NewHandler(conn, registry, cfg.NATS.Subject, cfg.NATS.Queue, log)
		if err := intake.Start(ctx); err != nil {
			return err
		}
		defer intake.Stop()
	} else {
		log.Warn("NATS intake disabled, only manual dispatch is available")
	}

	// HTTP surface
	handler := handlers.NewHandler(registry, log)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dispatch service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
