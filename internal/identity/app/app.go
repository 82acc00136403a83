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

	httpapi "github.com/campusnotes/campusnotes/internal/identity/http"
	"github.com/campusnotes/campusnotes/internal/identity/metrics"
	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/internal/identity/store"
	"github.com/campusnotes/campusnotes/internal/identity/store/drivers/sqlite"
	"github.com/campusnotes/campusnotes/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	redis     *redis.Client
	sessions  session.Store
	signer    *session.Signer
	providers *provider.Registry
	registry  *prometheus.Registry

	// Services
	resolverService *service.ResolverService
	userService     *service.UserService
	guildService    *service.GuildJoinService
	gate            *service.SessionGate

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSessions(); err != nil {
		return nil, err
	}

	if err := app.initProviders(ctx); err != nil {
		return nil, err
	}

	app.registry = prometheus.NewRegistry()
	metrics.RegisterCollectors(app.registry)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.redis.Close(); err != nil {
		app.logger.Error("error closing redis client", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
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

// initSessions sets up the redis-backed session store and the cookie signer.
func (app *Application) initSessions() error {
	app.redis = redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	app.sessions = session.NewRedisStore(app.redis)

	signer, err := session.NewSigner(app.cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize session signer: %w", err)
	}
	app.signer = signer

	return nil
}

// initProviders registers the configured OAuth providers. The set is fixed at
// startup; a provider with missing credentials is simply not offered.
func (app *Application) initProviders(ctx context.Context) error {
	var providers []provider.Provider

	if app.cfg.GoogleClientID != "" {
		google, err := provider.NewGoogle(ctx,
			app.cfg.GoogleClientID,
			app.cfg.GoogleClientSecret,
			app.cfg.BaseURL+"/v1/auth/google/callback",
		)
		if err != nil {
			return fmt.Errorf("failed to initialize google provider: %w", err)
		}
		providers = append(providers, google)
	}

	if app.cfg.DiscordClientID != "" {
		discord, err := provider.NewDiscord(
			app.cfg.DiscordClientID,
			app.cfg.DiscordClientSecret,
			app.cfg.BaseURL+"/v1/auth/discord/callback",
		)
		if err != nil {
			return fmt.Errorf("failed to initialize discord provider: %w", err)
		}
		providers = append(providers, discord)
	}

	if len(providers) == 0 {
		return errors.New("no oauth providers configured")
	}

	app.providers = provider.NewRegistry(providers...)
	app.logger.Info("oauth providers registered", "providers", app.providers.Names())
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.resolverService = &service.ResolverService{Store: app.db}

	app.userService = &service.UserService{
		Store:         app.db,
		AdminCodeHash: app.cfg.AdminCodeHash,
	}

	app.guildService = &service.GuildJoinService{
		Logger:   app.logger,
		BotToken: app.cfg.DiscordBotToken,
		GuildID:  app.cfg.DiscordGuildID,
		Timeout:  10 * time.Second,
	}
	if app.guildService.Enabled() {
		app.logger.Info("guild auto-join enabled", "guild_id", app.cfg.DiscordGuildID)
	}

	app.gate = &service.SessionGate{
		Sessions: app.sessions,
		Signer:   app.signer,
		Guild:    app.guildService,
		TTL:      app.cfg.SessionTTL,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.redis, app.logger)

	router.Providers = app.providers
	router.Resolver = app.resolverService
	router.Gate = app.gate
	router.UserService = app.userService
	router.Sessions = app.sessions
	router.Signer = app.signer
	router.SecureCookies = app.cfg.SecureCookies
	router.PostLoginURL = app.cfg.PostLoginURL
	router.LoginPageURL = app.cfg.LoginPageURL
	router.Registry = app.registry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
