package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/standup/internal/standup/dedup"
	httpapi "github.com/aussiebroadwan/standup/internal/standup/http"
	"github.com/aussiebroadwan/standup/internal/standup/service"
	"github.com/aussiebroadwan/standup/internal/standup/slack"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/internal/standup/store/drivers/sqlite"
	"github.com/aussiebroadwan/standup/pkg/jwtx"
	"github.com/aussiebroadwan/standup/pkg/signx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the standup service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	rdb       *redis.Client
	dedup     *dedup.Store
	messenger service.Messenger

	// Services
	tokenService     *service.TokenService
	answerService    *service.AnswerService
	linkService      *service.LinkService
	ingestService    *service.IngestService
	schedulerService *service.SchedulerService
	reminderService  *service.ReminderService
	digestService    *service.DigestService
	jobs             *service.JobRunner

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "standup-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.SigningSecret == "" {
		return nil, errors.New("STANDUP_SIGNING_SECRET is required")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("STANDUP_TOKEN_SECRET is required")
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	app.initDedup()
	app.initMessenger()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if err := app.jobs.Start(); err != nil {
		return fmt.Errorf("failed to start jobs: %w", err)
	}

	app.logger.Info("standup service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down standup service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGrace)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Jobs stop after the server so in-flight webhook work still has its
	// backing services; Stop blocks until running ticks finish.
	app.jobs.Stop()

	if err := app.rdb.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("standup service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initDedup initializes the Redis-backed duplicate-delivery registry.
func (app *Application) initDedup() {
	app.rdb = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
	})
	app.dedup = dedup.New(app.rdb, app.cfg.DedupWindow)
}

// initMessenger selects the outbound delivery implementation. Without a bot
// token the service still schedules and collects; deliveries land in the log
// instead of a workspace, which keeps local development credential-free.
func (app *Application) initMessenger() {
	if app.cfg.SlackBotToken == "" {
		app.logger.Warn("no bot token configured, message delivery disabled")
		app.messenger = &logMessenger{logger: app.logger}
		return
	}
	app.messenger = slack.NewClient(app.cfg.SlackBotToken)
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:   app.db,
		Signer:  jwtx.NewHS256([]byte(app.cfg.TokenSecret), app.cfg.Issuer),
		TTL:     app.cfg.TokenTTL,
		BaseURL: app.cfg.BaseURL,
		Issuer:  app.cfg.Issuer,
	}

	app.answerService = &service.AnswerService{Store: app.db}
	app.linkService = &service.LinkService{Store: app.db}
	app.ingestService = &service.IngestService{
		Dedup: app.dedup,
		Links: app.linkService,
	}

	app.schedulerService = &service.SchedulerService{
		Store:     app.db,
		Tokens:    app.tokenService,
		Messenger: app.messenger,
		Logger:    app.logger,
	}
	app.reminderService = &service.ReminderService{
		Store:     app.db,
		Messenger: app.messenger,
		Logger:    app.logger,
	}
	app.digestService = &service.DigestService{
		Store:     app.db,
		Messenger: app.messenger,
		Logger:    app.logger,
	}

	app.jobs = &service.JobRunner{
		Scheduler: app.schedulerService,
		Reminder:  app.reminderService,
		Digest:    app.digestService,
		Logger:    app.logger,
		Spec:      app.cfg.JobSpec,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		signx.NewVerifier(app.cfg.SigningSecret, app.cfg.FreshnessWindow),
		BuildVersion,
		app.db,
		app.dedup,
		app.logger,
	)

	// Wire services to router
	router.IngestService = app.ingestService
	router.TokenService = app.tokenService
	router.AnswerService = app.answerService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// logMessenger is the delivery stand-in used when no bot token is configured.
type logMessenger struct {
	logger *slog.Logger
}

func (m *logMessenger) PostToChannel(_ context.Context, channelID, text string) error {
	m.logger.Info("channel message (delivery disabled)", "channel_id", channelID, "text", text)
	return nil
}

func (m *logMessenger) PostDirect(_ context.Context, platformUserID, text string) error {
	m.logger.Info("direct message (delivery disabled)", "platform_user_id", platformUserID, "text", text)
	return nil
}
