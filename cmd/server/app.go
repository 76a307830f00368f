package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/notifyd/internal/config"
	"github.com/phrazzld/notifyd/internal/delivery"
	"github.com/phrazzld/notifyd/internal/dispatch"
	"github.com/phrazzld/notifyd/internal/platform/memory"
	"github.com/phrazzld/notifyd/internal/platform/postgres"
	"github.com/phrazzld/notifyd/internal/service/auth"
	"github.com/phrazzld/notifyd/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry

	recipients    store.RecipientStore
	notifications store.NotificationStore

	// jwtService is nil when authentication is disabled.
	jwtService auth.JWTService
	dispatcher *dispatch.Dispatcher
}

// newApplication wires stores, channels, the dispatcher and authentication
// from cfg. Queued records left by a previous process are re-queued when
// dispatcher.recover_on_start is set.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := app.setupStores(ctx); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret != "" {
		jwtService, err := auth.NewJWTService(cfg.Auth)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		app.jwtService = jwtService
		logger.Info("JWT authentication enabled", "token_lifetime", cfg.Auth.TokenLifetime)
	} else {
		logger.Warn("JWT authentication disabled, API routes are unauthenticated")
	}

	channels := delivery.NewSet(cfg.Channels, logger.With("component", "delivery"))
	app.dispatcher = dispatch.New(
		app.recipients,
		app.notifications,
		channels,
		cfg.Dispatcher,
		logger,
		dispatch.WithMetrics(dispatch.NewMetrics(app.registry)),
	)

	if cfg.Dispatcher.RecoverOnStart {
		if _, err := app.dispatcher.Recover(ctx); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to recover queued notifications: %w", err)
		}
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) setupStores(ctx context.Context) error {
	switch app.config.Database.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, app.config.Database.URL)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(ctx, db, app.logger); err != nil {
			_ = db.Close()
			return err
		}
		app.db = db
		app.recipients = postgres.NewPostgresRecipientStore(db, app.logger)
		app.notifications = postgres.NewPostgresNotificationStore(db, app.logger)
	case "memory":
		app.recipients = memory.NewRecipientStore()
		app.notifications = memory.NewNotificationStore()
	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}

	app.logger.Info("stores initialized", "driver", app.config.Database.Driver)
	return nil
}

// Run serves HTTP on the configured port until ctx is cancelled, then shuts
// the server and the dispatcher down.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases resources held by app. It is safe to call more than once.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
		app.db = nil
	}
}
