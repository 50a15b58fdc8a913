package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/deviljitu1/forever-flame-companion/internal/avatars"
	"github.com/deviljitu1/forever-flame-companion/internal/config"
	"github.com/deviljitu1/forever-flame-companion/internal/database"
	"github.com/deviljitu1/forever-flame-companion/internal/events"
	"github.com/deviljitu1/forever-flame-companion/internal/handlers"
	"github.com/deviljitu1/forever-flame-companion/internal/hints"
	"github.com/deviljitu1/forever-flame-companion/internal/logging"
	"github.com/deviljitu1/forever-flame-companion/internal/partnership"
	"github.com/deviljitu1/forever-flame-companion/internal/routes"
	"github.com/deviljitu1/forever-flame-companion/internal/services"
	"github.com/deviljitu1/forever-flame-companion/internal/telemetry"
)

func newServeCommand() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
	return cmd
}

func serve(ctx context.Context, migrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		return err
	}
	defer closeDatabase()

	if migrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB, 5*time.Second)
	defer pgLogHandler.Stop()
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewJSONHandler(os.Stdout),
		pgLogHandler,
	)))

	// Log cleanup
	cleanupDone := make(chan struct{})
	defer close(cleanupDone)
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err.Error())
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Tracing
	shutdownTracing, err := telemetry.Init(ctx, "lovekeeper", cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Events
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		bus, err := events.Connect(cfg.NATSURL, cfg.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		defer bus.Close()
		publisher = bus
		slog.Info("event bus connected", "prefix", cfg.SubjectPrefix)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := partnership.NewMetrics(registry)

	// Partnerships
	store := partnership.NewGormStore(database.DB)
	partnershipService := partnership.NewService(store, partnership.Options{
		RelinkAttempts:        cfg.RelinkAttempts,
		RelinkInitialInterval: cfg.RelinkInitialInterval,
		Publisher:             publisher,
		Metrics:               metrics,
	})

	reconciler := partnership.NewReconciler(store, cfg.ReconcileWorkers, metrics, publisher)
	reconcileCtx, stopReconcile := context.WithCancel(ctx)
	reconcileStopped := reconciler.Start(reconcileCtx, cfg.ReconcileInterval)
	defer func() {
		stopReconcile()
		<-reconcileStopped
	}()

	// Profiles and moods
	hintService, err := hints.NewService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.AITimeout)
	if err != nil {
		return err
	}
	var presigner handlers.AvatarPresigner
	if cfg.AvatarsEnabled() {
		client, err := avatars.New(ctx, avatars.Config{
			Endpoint:       cfg.S3Endpoint,
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			PublicURL:      cfg.S3PublicURL,
			ForcePathStyle: cfg.S3ForcePathStyle,
			TTL:            cfg.AvatarURLTTL,
		})
		if err != nil {
			return fmt.Errorf("avatars: %w", err)
		}
		presigner = client
	} else {
		slog.Info("avatar uploads disabled")
	}
	profileService := services.NewProfileService(database.DB, store, services.NewContentFilter())
	moodService := services.NewMoodService(database.DB, store, hintService, publisher)
	coachService := services.NewCoachService(database.DB, store, hintService)

	app := newApp(cfg, registry, routes.Handlers{
		Health:      handlers.NewHealthHandler(database.Ping),
		Partnership: handlers.NewPartnershipHandler(partnershipService, cfg.InviteBaseURL),
		Profile:     handlers.NewProfileHandler(profileService, presigner),
		Mood:        handlers.NewMoodHandler(moodService),
		Chat:        handlers.NewChatHandler(coachService),
		Admin:       handlers.NewAdminHandler(reconciler, database.DB),
	})

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Error("server shutdown error", "error", err.Error())
	}
	slog.Info("server stopped")
	return nil
}
