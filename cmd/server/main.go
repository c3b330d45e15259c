// Command server runs the Nebula admin: the server-rendered admin UI, the
// JSON API, and the background maintenance jobs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"nebula-admin/internal/api"
	"nebula-admin/internal/app"
	"nebula-admin/internal/config"
	internaldb "nebula-admin/internal/db"
	"nebula-admin/internal/middleware"
	"nebula-admin/internal/ui"
)

func main() {
	_ = config.LoadDotEnv(".env")
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// writeDB: single-connection pool for serialized writes.
	// readDB: small pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenPair(cfg.DBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	a, err := app.New(ctx, app.Deps{
		Cfg:     cfg,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	if a.JWT != nil {
		apiHandler := api.NewHandler(a.Registry, logger.With("component", "api"))
		r.Route("/api", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSAllowedOrigins,
				AllowedMethods: []string{"GET", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type"},
				MaxAge:         300,
			}))
			r.Use(middleware.BearerAuth(a.JWT))
			api.MountRoutes(r, apiHandler)
		})
	} else {
		logger.Warn("JWT_SECRET not set; JSON API disabled")
	}

	uiHandler := ui.NewHandler(
		a.Registry, a.Users, a.Sessions, a.Uploads,
		logger.With("component", "ui"), cfg.IsProduction(),
	)
	ui.MountRoutes(r, uiHandler, middleware.SessionAuth(a.Users, middleware.RedirectToLogin))

	jobs := startMaintenance(ctx, a, cfg, logger)
	defer jobs.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("admin listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// startMaintenance schedules the recurring cleanup jobs: expired sessions
// hourly, audit rows past the retention window daily.
func startMaintenance(ctx context.Context, a *app.App, cfg *config.Config, logger *slog.Logger) *cron.Cron {
	c := cron.New()

	_, _ = c.AddFunc("@hourly", func() {
		n, err := a.Sessions.Store.PurgeExpired(ctx)
		if err != nil {
			logger.Warn("session purge failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("purged expired sessions", "count", n)
		}
	})

	_, _ = c.AddFunc("@daily", func() {
		cutoff := time.Now().Add(-cfg.AuditRetention)
		n, err := a.Audit.Purge(ctx, cutoff)
		if err != nil {
			logger.Warn("audit purge failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("purged audit rows", "count", n, "older_than", cutoff.Format(time.RFC3339))
		}
	})

	c.Start()
	return c
}
