package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-papers/internal/api"
	"github.com/p-n-ai/pai-papers/internal/extract"
	"github.com/p-n-ai/pai-papers/internal/pipeline"
	"github.com/p-n-ai/pai-papers/internal/platform/cache"
	"github.com/p-n-ai/pai-papers/internal/platform/config"
	"github.com/p-n-ai/pai-papers/internal/platform/database"
	"github.com/p-n-ai/pai-papers/internal/questionbank"
	"github.com/p-n-ai/pai-papers/internal/questiongen"
	"github.com/p-n-ai/pai-papers/internal/session"
	"github.com/p-n-ai/pai-papers/internal/templates"
)

const readyTimeout = 2 * time.Second

// healthChecker is a dependency probed by /readyz.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	slog.SetDefault(newLogger(cfg.Log))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	checks := map[string]healthChecker{}
	svcCfg := pipeline.ServiceConfig{
		Extractor: extract.New(cfg.Storage.MinTextLength),
		ExportDir: cfg.Storage.ExportDir,
		Seed:      cfg.Generation.Seed,
	}

	if cfg.NeedsDatabase() {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.Database.Migrate {
			if err := db.Migrate(ctx); err != nil {
				return err
			}
		}
		bank, err := questionbank.NewPostgresStore(db.Pool)
		if err != nil {
			return err
		}
		svcCfg.Bank = bank
		svcCfg.Events = pipeline.NewPostgresEventLogger(db.Pool)
		checks["database"] = db
		slog.Info("question bank backed by postgres", "max_conns", cfg.Database.MaxConns)
	}

	if cfg.NeedsCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return err
		}
		defer c.Close()

		sessions, err := session.NewRedisStore(c.Client, cfg.Session.TTL)
		if err != nil {
			return err
		}
		svcCfg.Sessions = sessions
		checks["cache"] = c
		slog.Info("sessions backed by redis", "ttl", cfg.Session.TTL)
	}

	loader, err := templates.NewLoader(cfg.Generation.TemplatesPath)
	if err != nil {
		return err
	}
	svcCfg.Generator = questiongen.NewGenerator(loader.Set())

	handler, err := api.New(pipeline.NewService(svcCfg), cfg.Storage.MaxUploadBytes)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      newMux(checks, handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"storage", cfg.Storage.Backend,
			"sessions", cfg.Session.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// newMux creates the HTTP router with health check endpoints and, when
// handler is non-nil, the pipeline routes.
func newMux(checks map[string]healthChecker, handler *api.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", readyzHandler(checks))
	if handler != nil {
		handler.Register(mux)
	}
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyzHandler probes every dependency concurrently and reports the first
// failure.
func readyzHandler(checks map[string]healthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, check := range checks {
			g.Go(func() error {
				if err := check.HealthCheck(gctx); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				return nil
			})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := g.Wait(); err != nil {
			slog.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
