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

	httpapi "github.com/aussiebroadwan/teamvault/internal/vault/http"
	"github.com/aussiebroadwan/teamvault/internal/vault/notify"
	"github.com/aussiebroadwan/teamvault/internal/vault/service"
	"github.com/aussiebroadwan/teamvault/internal/vault/store"
	"github.com/aussiebroadwan/teamvault/internal/vault/telemetry"
	"github.com/aussiebroadwan/teamvault/pkg/cryptox"
	"github.com/aussiebroadwan/teamvault/pkg/jwtx"
	"github.com/aussiebroadwan/teamvault/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the vault service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	sessions *jwtx.SessionKeys
	metrics  *telemetry.Metrics
	sealer   *cryptox.Sealer
	hasher   cryptox.Hasher
	notifier service.Notifier

	// Services
	accountService      *service.AccountService
	organizationService *service.OrganizationService
	invitationService   *service.InvitationService
	shareService        *service.ShareService
	vaultService        *service.VaultService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger returns the process logger for cfg.
func NewLogger(cfg Config, component string) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: component,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg, "vault-service"),
		metrics: telemetry.New(),
	}
	ctx := context.Background()

	if err := app.initSecrets(); err != nil {
		return nil, err
	}

	db, err := OpenStore(ctx, cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	sessions, err := InitSessionKeys(cfg, app.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.sessions = sessions

	if err := app.initNotifier(); err != nil {
		_ = db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("vault service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down vault service...")

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

	app.logger.Info("vault service stopped")
	return nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// initSecrets loads the password pepper and the entry master key, creating
// them on first start.
func (app *Application) initSecrets() error {
	pepper, err := cryptox.LoadOrCreateSecret(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.Hasher{Pepper: pepper}

	masterKey, err := cryptox.LoadOrCreateSecret(app.cfg.MasterKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	app.sealer, err = cryptox.NewSealer([]byte(masterKey))
	if err != nil {
		return fmt.Errorf("failed to initialize sealer: %w", err)
	}
	return nil
}

func (app *Application) initNotifier() error {
	if !app.cfg.SMTPEnabled() {
		app.logger.Warn("SMTP_HOST not set, invitation emails will only be logged")
		app.notifier = notify.LogNotifier{BaseURL: app.cfg.BaseURL}
		return nil
	}

	n, err := notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to configure smtp: %w", err)
	}
	app.notifier = n
	app.logger.Info("invitation emails enabled", "smtp_host", app.cfg.SMTPHost, "smtp_port", app.cfg.SMTPPort)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.accountService = &service.AccountService{Store: app.db, Hasher: app.hasher}
	app.organizationService = &service.OrganizationService{Store: app.db}
	app.invitationService = &service.InvitationService{
		Store:    app.db,
		Notifier: app.notifier,
		Metrics:  app.metrics,
	}
	app.shareService = &service.ShareService{Store: app.db, Metrics: app.metrics}
	app.vaultService = &service.VaultService{
		Store:  app.db,
		Shares: app.shareService,
		Sealer: app.sealer,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.invitationService,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.sessions,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	router.AccountService = app.accountService
	router.OrganizationService = app.organizationService
	router.InvitationService = app.invitationService
	router.ShareService = app.shareService
	router.VaultService = app.vaultService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
