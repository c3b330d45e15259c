// Package app wires repositories, the session layer, and the module registry
// from the configuration main() provides.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"nebula-admin/internal/config"
	"nebula-admin/internal/middleware"
	"nebula-admin/internal/module"
	"nebula-admin/internal/repository"
	"nebula-admin/internal/session"
	"nebula-admin/internal/upload"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App is the fully-wired application: the module registry with every built-in
// and YAML-defined screen registered, plus the pieces router setup needs.
type App struct {
	Registry *module.Registry
	Users    *repository.UserRepo
	Audit    *repository.AuditRepo
	Sessions *session.Manager
	Uploads  *upload.Store

	// JWT is nil when no secret is configured; the JSON API stays unmounted.
	JWT *middleware.HS256Validator
}

// New wires repositories and registers the built-in admin screens, then any
// YAML definitions from cfg.ModulesDir. It also seeds the first admin user on
// an empty database.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg

	users := repository.NewUserRepo(deps.WriteDB)
	audit := repository.NewAuditRepo(deps.WriteDB)
	uploads := upload.NewStore(cfg.UploadsDir)

	moduleDeps := module.Deps{
		Write:   deps.WriteDB,
		Read:    deps.ReadDB,
		Audit:   audit,
		ReqLog:  repository.NewRequestLogRepo(deps.WriteDB),
		Schema:  repository.NewSchemaRepo(deps.ReadDB),
		Uploads: uploads,
		Log:     deps.Logger.With("component", "module"),
	}

	registry := module.NewRegistry(moduleDeps)
	if err := RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("register built-in modules: %w", err)
	}
	if cfg.ModulesDir != "" {
		if err := registry.LoadYAMLDir(cfg.ModulesDir); err != nil {
			return nil, fmt.Errorf("load module definitions: %w", err)
		}
	}

	if err := seedAdminUser(ctx, users, deps.Logger); err != nil {
		return nil, fmt.Errorf("seed admin user: %w", err)
	}

	sessions := &session.Manager{
		Store:      session.NewStore(deps.WriteDB, cfg.SessionTTL),
		Production: cfg.IsProduction(),
	}

	var validator *middleware.HS256Validator
	if cfg.JWTSecret != "" {
		var err error
		validator, err = middleware.NewHS256Validator(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("jwt validator: %w", err)
		}
	}

	return &App{
		Registry: registry,
		Users:    users,
		Audit:    audit,
		Sessions: sessions,
		Uploads:  uploads,
		JWT:      validator,
	}, nil
}
