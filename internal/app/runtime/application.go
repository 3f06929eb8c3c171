// Package runtime wires configuration, persistence and the HTTP surface into a
// runnable process.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	app "github.com/fastfood-labs/order_service/internal/app"
	"github.com/fastfood-labs/order_service/internal/app/auth"
	"github.com/fastfood-labs/order_service/internal/app/httpapi"
	"github.com/fastfood-labs/order_service/internal/app/storage/memory"
	"github.com/fastfood-labs/order_service/internal/app/storage/sqlstore"
	"github.com/fastfood-labs/order_service/internal/config"
	"github.com/fastfood-labs/order_service/internal/logging"
	mw "github.com/fastfood-labs/order_service/internal/middleware"
	"github.com/fastfood-labs/order_service/internal/platform/database"
	"github.com/fastfood-labs/order_service/internal/platform/migrations"
	"github.com/fastfood-labs/order_service/internal/secretstore"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	limiterCleanupInterval = time.Minute
)

// CredentialSource supplies database credentials at startup.
type CredentialSource interface {
	FetchCredentials(ctx context.Context) (database.Credentials, error)
}

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	httpServer *http.Server
	handler    http.Handler
	limiter    *mw.RateLimiter
	auditSink  *httpapi.FileAuditSink
	db         *sqlx.DB
}

// NewApplication builds the process from cfg. Persistent drivers open the
// pool (with vault credentials when configured) and optionally apply the
// schema; the memory driver needs nothing external.
func NewApplication(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("runtime: config is required")
	}
	if log == nil {
		log = logging.New("fastfood", cfg.Logging.Level, cfg.Logging.Format)
	}

	var source CredentialSource
	if cfg.Vault.Enabled() {
		kv, err := secretstore.New(secretstore.Config{
			VaultURL:   cfg.Vault.URL,
			SecretName: cfg.Vault.SecretName,
			Timeout:    cfg.Vault.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("configure vault: %w", err)
		}
		source = kv
	}

	stores, db, err := buildStores(ctx, cfg.Database, source, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	a, err := assemble(cfg, log, stores)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}
	a.db = db
	return a, nil
}

func assemble(cfg *config.Config, log *logging.Logger, stores app.Stores) (*Application, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.Algorithm, cfg.Auth.TTL())
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}
	application, err := app.New(stores, tokens, log.Named("app"))
	if err != nil {
		return nil, err
	}

	var limiter *mw.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = mw.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log.Named("ratelimit"))
	}

	sink, err := httpapi.NewFileAuditSink(cfg.Server.AuditLogPath)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	var auditSink httpapi.AuditSink
	if sink != nil {
		auditSink = sink
	}

	handler := httpapi.NewHandler(application, httpapi.Options{
		PathPrefix:        cfg.Server.PathPrefix,
		AllowedOrigins:    cfg.Server.AllowedOrigins(),
		RateLimiter:       limiter,
		Audit:             httpapi.NewAuditLog(0, auditSink),
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		Logger:            log.Named("http"),
	})

	return &Application{
		cfg:     cfg,
		log:     log,
		handler: handler,
		limiter: limiter,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
		auditSink: sink,
	}, nil
}

func buildStores(ctx context.Context, cfg config.DatabaseConfig, source CredentialSource, log *logging.Logger) (app.Stores, *sqlx.DB, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("DB_DRIVER=memory; data is lost on restart")
		mem := memory.New()
		return app.Stores{Products: mem, Clients: mem, Orders: mem}, nil, nil
	}

	creds := database.CredentialsFromConfig(cfg)
	if source != nil {
		fetched, err := source.FetchCredentials(ctx)
		if err != nil {
			return app.Stores{}, nil, fmt.Errorf("fetch database credentials: %w", err)
		}
		creds = fetched
		log.WithField("host", creds.Host).Info("database credentials loaded from vault")
	}

	db, err := database.Open(ctx, cfg, creds)
	if err != nil {
		return app.Stores{}, nil, err
	}

	if cfg.AutoMigrate {
		if err := migrations.Apply(ctx, db.DB, cfg.Driver); err != nil {
			db.Close()
			return app.Stores{}, nil, fmt.Errorf("apply schema: %w", err)
		}
		log.Info("database schema is up to date")
	}

	store := sqlstore.New(db, cfg.QueryTimeout)
	return app.Stores{Products: store, Clients: store, Orders: store}, db, nil
}

// Handler exposes the assembled HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if a.limiter != nil {
		a.limiter.StartCleanup(ctx, limiterCleanupInterval)
	}

	go func() {
		a.log.Infof("HTTP server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server and releases the pool.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	if err := a.auditSink.Close(); err != nil {
		a.log.WithError(err).Warn("error closing audit log")
	}

	return nil
}
