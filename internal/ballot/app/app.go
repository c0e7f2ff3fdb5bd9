package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/openballot/ballotd/internal/ballot/http"
	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/internal/ballot/store"
	"github.com/openballot/ballotd/internal/ballot/store/drivers/sqlite"
	"github.com/openballot/ballotd/pkg/cryptox"
	"github.com/openballot/ballotd/pkg/jwtx"
	"github.com/openballot/ballotd/pkg/mailx"
	"github.com/openballot/ballotd/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the ballot service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	mail   mailx.Sender

	authService         *service.AuthService
	organizationService *service.OrganizationService
	sessionService      *service.SessionService
	rosterService       *service.RosterService
	issuanceService     *service.IssuanceService
	castingService      *service.CastingService
	auditService        *service.AuditService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "ballot-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("BALLOT_JWT_SECRET is required")
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.signer = &jwtx.Signer{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.Issuer,
		Audience: cfg.Issuer,
		TTL:      cfg.TokenTTL,
	}

	app.initMail()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("ballot service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down ballot service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("ballot service stopped")
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

// initMail picks the outbound email backend. Without an SMTP relay the
// recorder keeps messages in memory, which is enough for dev.
func (app *Application) initMail() {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("no SMTP relay configured, outbound email is recorded in memory only")
		app.mail = &mailx.Recorder{}
		return
	}

	var auth smtp.Auth
	if app.cfg.SMTPUsername != "" {
		host := app.cfg.SMTPAddr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", app.cfg.SMTPUsername, app.cfg.SMTPPassword, host)
	}
	app.mail = &mailx.SMTPSender{
		Addr: app.cfg.SMTPAddr,
		From: app.cfg.SMTPFrom,
		Auth: auth,
	}
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{Store: app.db}
	app.organizationService = &service.OrganizationService{Store: app.db}
	app.sessionService = &service.SessionService{Store: app.db}
	app.rosterService = &service.RosterService{Store: app.db, Mail: app.mail}
	app.issuanceService = &service.IssuanceService{Store: app.db, Mail: app.mail}
	app.castingService = &service.CastingService{Store: app.db}
	app.auditService = &service.AuditService{Store: app.db}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.AuthService = app.authService
	router.OrganizationService = app.organizationService
	router.SessionService = app.sessionService
	router.RosterService = app.rosterService
	router.IssuanceService = app.issuanceService
	router.CastingService = app.castingService
	router.AuditService = app.auditService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
