package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/docgpt/internal/api/handlers"
	"github.com/cloo-solutions/docgpt/internal/jobs"
	"github.com/cloo-solutions/docgpt/internal/server"
	"github.com/cloo-solutions/docgpt/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat web server",
		Long:  "Serve the chat page and its API on the configured port",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	janitor := jobs.NewWorker("session janitor", jobs.NewSessionJanitor(app.Sessions), cfg.JanitorInterval)
	go janitor.Start(ctx)

	router := server.NewRouter(server.RouterConfig{
		Sessions:        app.Sessions,
		SecureCookies:   cfg.Environment == "production",
		MaxUploadBytes:  cfg.MaxUploadBytes,
		PageHandler:     handlers.NewPageHandler(cfg.MaxUploadBytes),
		SessionHandler:  handlers.NewSessionHandler(),
		DocumentHandler: handlers.NewDocumentHandler(app.Pipeline, cfg.MaxUploadBytes),
		ChatHandler:     handlers.NewChatHandler(app.Pipeline),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("starting %s on port %s", cfg.Profile.Title(), cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	janitor.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
