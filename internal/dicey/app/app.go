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

	httpapi "github.com/diceydecisions/dicey/internal/dicey/http"
	"github.com/diceydecisions/dicey/internal/dicey/service"
	"github.com/diceydecisions/dicey/internal/dicey/store"
	"github.com/diceydecisions/dicey/internal/dicey/store/drivers/sqlite"
	"github.com/diceydecisions/dicey/pkg/jwtx"
	"github.com/diceydecisions/dicey/pkg/mailx"
	"github.com/diceydecisions/dicey/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	mailer mailx.Mailer

	accessSigner       *jwtx.HS256
	refreshSigner      *jwtx.HS256
	verificationSigner *jwtx.HS256

	// Services
	accountService      *service.AccountService
	roomService         *service.RoomService
	optionService       *service.OptionService
	voteService         *service.VoteService
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
			Service: "dicey",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSigners(); err != nil {
		return nil, err
	}
	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("dicey service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
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
	app.logger.Info("shutting down dicey service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("dicey service stopped")
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

func (app *Application) initSigners() error {
	var err error
	app.accessSigner, err = jwtx.NewHS256([]byte(app.cfg.AccessSecret), app.cfg.Issuer, jwtx.UseAccess)
	if err != nil {
		return fmt.Errorf("access secret: %w", err)
	}
	app.refreshSigner, err = jwtx.NewHS256([]byte(app.cfg.RefreshSecret), app.cfg.Issuer, jwtx.UseRefresh)
	if err != nil {
		return fmt.Errorf("refresh secret: %w", err)
	}
	app.verificationSigner, err = jwtx.NewHS256([]byte(app.cfg.VerificationSecret), app.cfg.Issuer, jwtx.UseVerification)
	if err != nil {
		return fmt.Errorf("verification secret: %w", err)
	}
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, mail delivery goes to the log")
		app.mailer = &mailx.LogMailer{Log: app.logger}
		return
	}

	mailer, err := mailx.NewSMTPMailer(mailx.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
	if err != nil {
		app.logger.Error("SMTP mailer init failed, falling back to log delivery", "error", err)
		app.mailer = &mailx.LogMailer{Log: app.logger}
		return
	}
	app.mailer = mailer
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.accountService = &service.AccountService{
		Store:              app.db,
		AccessSigner:       app.accessSigner,
		RefreshSigner:      app.refreshSigner,
		VerificationSigner: app.verificationSigner,
		Mailer:             app.mailer,
		AccessTTL:          app.cfg.AccessTTL,
		RefreshTTL:         app.cfg.RefreshTTL,
		VerificationTTL:    app.cfg.VerificationTTL,
		PendingTTL:         app.cfg.PendingTTL,
		VerifyBaseURL:      app.cfg.VerifyBaseURL,
	}

	app.roomService = &service.RoomService{
		Store:            app.db,
		InactivityWindow: app.cfg.InactivityWindow,
	}
	app.optionService = &service.OptionService{Store: app.db}
	app.voteService = &service.VoteService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.accessSigner,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AccountService = app.accountService
	router.RoomService = app.roomService
	router.OptionService = app.optionService
	router.VoteService = app.voteService
	router.RefreshTTL = app.cfg.RefreshTTL
	router.CronSecret = app.cfg.CronSecret
	router.SecureCookies = app.cfg.SecureCookies
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
