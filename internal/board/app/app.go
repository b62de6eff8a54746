package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/classdesk/classboard/internal/board/http"
	"github.com/classdesk/classboard/internal/board/realtime"
	"github.com/classdesk/classboard/internal/board/service"
	"github.com/classdesk/classboard/internal/board/store"
	"github.com/classdesk/classboard/internal/board/store/drivers/sqlite"
	"github.com/classdesk/classboard/pkg/cryptox"
	"github.com/classdesk/classboard/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags
	BuildVersion = "v0.1.0"
)

// Application encapsulates the board service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db  store.Store
	hub *realtime.Hub

	// Services
	sessionService      *service.SessionService
	authService         *service.AuthService
	twoFactorService    *service.TwoFactorService
	boardService        *service.BoardService
	feedService         *service.FeedService
	invitationService   *service.InvitationService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "board-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.hub = realtime.NewHub(app.logger)
	app.initServices()
	app.initHTTP()

	if err := app.userService.EnsureAdmin(
		context.Background(),
		app.logger,
		cfg.AdminUsername,
		cfg.AdminPassword,
		cfg.AdminEmail,
	); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.hub.Start()
	app.housekeepingService.Start()

	app.logger.Info("board service starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down board service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutting down the server first stops new feed connections; the hub
	// then disconnects the remaining ones.
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.hub.Stop()
	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("board service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
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

// initServices initializes all business logic services
func (app *Application) initServices() {
	recorder := &service.Recorder{
		Store:  app.db,
		Hub:    app.hub,
		Logger: app.logger,
	}

	app.sessionService = &service.SessionService{
		Store: app.db,
		TTL:   app.cfg.SessionTTL,
	}
	app.authService = &service.AuthService{Store: app.db}
	app.twoFactorService = &service.TwoFactorService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}
	app.boardService = &service.BoardService{
		Store:    app.db,
		Recorder: recorder,
	}
	app.feedService = &service.FeedService{Store: app.db}
	app.invitationService = &service.InvitationService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		&service.LogMailer{Logger: app.logger},
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.ReminderHorizon,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.db, app.logger)

	router.Hub = app.hub
	router.Sessions = app.sessionService
	router.Auth = app.authService
	router.TwoFactor = app.twoFactorService
	router.Board = app.boardService
	router.Feed = app.feedService
	router.Invitations = app.invitationService
	router.Users = app.userService
	router.CookieSecure = app.cfg.CookieSecure
	router.AllowedOrigin = app.cfg.AllowedOrigin
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
