// Package app wires configuration, storage, services and the HTTP API
// into a runnable application.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"anviltrack/internal/anvil"
	"anviltrack/internal/api"
	"anviltrack/internal/config"
	internaldb "anviltrack/internal/db"
	"anviltrack/internal/db/repository"
	"anviltrack/internal/domain"
	"anviltrack/internal/service/audit"
	"anviltrack/internal/service/tracker"
)

// App holds the composed application.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Tracker *tracker.Service
	Runner  *audit.Runner
	Client  domain.AnVILClient
	Handler http.Handler
}

// New builds the application with a live AnVIL client.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	client, err := anvil.Dial(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("dial anvil: %w", err)
	}
	return newWithClient(cfg, logger, client)
}

// NewWithClient builds the application around an injected AnVIL client.
// Used by tests and by CLI commands that do not need live credentials.
func NewWithClient(cfg *config.Config, logger *slog.Logger, client domain.AnVILClient) (*App, error) {
	return newWithClient(cfg, logger, client)
}

func newWithClient(cfg *config.Config, logger *slog.Logger, client domain.AnVILClient) (*App, error) {
	db, err := internaldb.OpenSQLite(cfg.DBPath, 4)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := internaldb.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	billing := repository.NewBillingProjectRepo(db)
	accounts := repository.NewAccountRepo(db)
	groups := repository.NewManagedGroupRepo(db)
	workspaces := repository.NewWorkspaceRepo(db)
	ignored := repository.NewIgnoredRepo(db)

	svc := tracker.NewService(billing, accounts, groups, workspaces, ignored, logger)
	runner := audit.NewRunner(audit.Repositories{
		BillingProjects: billing,
		Accounts:        accounts,
		Groups:          groups,
		Workspaces:      workspaces,
		Ignored:         ignored,
	}, client, logger)

	handler := api.NewHandler(svc, runner, client, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))
	r.Mount("/", handler.Routes())

	return &App{
		Config:  cfg,
		Logger:  logger,
		DB:      db,
		Tracker: svc,
		Runner:  runner,
		Client:  client,
		Handler: r,
	}, nil
}

// Close releases resources held by the application.
func (a *App) Close() error {
	return a.DB.Close()
}
