package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/clinicase/internal/api"
	"github.com/p-n-ai/clinicase/internal/casestore"
	"github.com/p-n-ai/clinicase/internal/casestore/migrations"
	"github.com/p-n-ai/clinicase/internal/clinical"
	"github.com/p-n-ai/clinicase/internal/learner"
	"github.com/p-n-ai/clinicase/internal/platform/cache"
	"github.com/p-n-ai/clinicase/internal/platform/config"
	"github.com/p-n-ai/clinicase/internal/platform/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	app, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      app.server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "storage", cfg.Storage.Driver, "views", cfg.Views.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// app is the wired server with the connections it owns.
type app struct {
	server  *api.Server
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// setup opens the configured backends and builds the API server.
func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	reg, err := loadRegistry(cfg.RegistryPath)
	if err != nil {
		return nil, err
	}

	apiCfg := api.Config{
		Registry: reg,
		Checks:   map[string]api.HealthChecker{},
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.Open(ctx, database.Options{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, db.Pool, migrations.FS); err != nil {
				a.close()
				return nil, err
			}
		}
		store, err := casestore.NewPostgresStore(db.Pool, reg)
		if err != nil {
			a.close()
			return nil, err
		}
		apiCfg.Store = store
		apiCfg.Events = learner.NewPostgresEventLogger(db.Pool)
		apiCfg.Checks["database"] = db
	default:
		apiCfg.Store = casestore.NewMemoryStore(reg)
		apiCfg.Events = learner.NopEventLogger{}
	}

	switch cfg.Views.Driver {
	case config.DriverRedis:
		c, err := cache.Open(ctx, cfg.Cache.URL)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		apiCfg.Views = learner.NewRedisViewStore(c, cfg.Views.TTL())
		apiCfg.Checks["cache"] = c
	default:
		apiCfg.Views = learner.NewMemoryViewStore()
	}

	srv, err := api.New(apiCfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.server = srv
	return a, nil
}

func loadRegistry(path string) (*clinical.Registry, error) {
	if path == "" {
		return clinical.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}
	reg, err := clinical.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading registry %s: %w", path, err)
	}
	slog.Info("registry loaded", "path", path, "phases", len(reg.Phases()))
	return reg, nil
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
