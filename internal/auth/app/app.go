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

	httpapi "github.com/otoshop/otoshop/internal/auth/http"
	"github.com/otoshop/otoshop/internal/auth/security"
	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/internal/auth/store"
	"github.com/otoshop/otoshop/internal/auth/store/drivers/sqlite"
	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	keys   *jwtx.KeySet
	codec  *jwtx.Codec
	hasher *cryptox.Hasher

	authService    *service.AuthService
	accountService *service.AccountService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "otoshop-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper, cryptox.DefaultParams)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keys, err := InitAuthKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keys = keys
	app.codec = jwtx.NewCodec(keys, jwtx.CodecOptions{
		Issuer:     cfg.Issuer,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})

	app.initServices()

	if cfg.SeedAdmin {
		ctx := slogx.WithContext(context.Background(), app.logger)
		if _, err := app.authService.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
			_ = app.db.Close()
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down auth service...")

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

	app.logger.Info("auth service stopped")
	return nil
}

// Handler exposes the fully wired router, for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:  app.db,
		Hasher: app.hasher,
		Codec:  app.codec,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Hasher: app.hasher,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		security.DefaultRules(),
		BuildVersion,
		app.db,
		app.logger,
	)

	router.AuthService = app.authService
	router.AccountService = app.accountService
	router.Cookies = httpapi.CookieConfig{
		Secure:        app.cfg.CookieSecure,
		RefreshInBody: app.cfg.RefreshInBody,
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
