// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/observability"
	"github.com/holomush/authcore/internal/store"
	"github.com/holomush/authcore/internal/web"
)

const (
	shutdownTimeout     = 10 * time.Second
	readHeaderTimeout   = 10 * time.Second
	rateLimitSweepEvery = 5 * time.Minute
)

// Database is the pool surface the commands use.
type Database interface {
	store.Querier
	Ping(ctx context.Context) error
	Close()
}

// ConnectFunc opens a Database.
type ConnectFunc func(ctx context.Context, databaseURL string, opts store.ConnectOptions) (Database, error)

func connectPostgres(ctx context.Context, databaseURL string, opts store.ConnectOptions) (Database, error) {
	pool, err := store.Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

func connectOptions(cfg *config.Config, logger *slog.Logger) store.ConnectOptions {
	opts := store.DefaultConnectOptions()
	opts.Attempts = cfg.Database.ConnectAttempts
	opts.Logger = logger
	return opts
}

// ServeDeps contains injectable dependencies for the serve command.
// Nil fields use their default implementations.
type ServeDeps struct {
	// Connect opens the database. Default: store.Connect.
	Connect ConnectFunc
	// Migrate applies pending migrations when --migrate is set.
	// Default: store.Migrator.Up.
	Migrate func(databaseURL string) error
	// Ready is called with the bound API address once serving.
	Ready func(addr string)
}

func (d ServeDeps) withDefaults() ServeDeps {
	if d.Connect == nil {
		d.Connect = connectPostgres
	}
	if d.Migrate == nil {
		d.Migrate = migrateUp
	}
	if d.Ready == nil {
		d.Ready = func(string) {}
	}
	return d
}

func migrateUp(databaseURL string) (err error) {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return m.Up()
}

type serveOptions struct {
	migrate bool
}

// newServeCmd creates the serve subcommand.
func newServeCmd(root *rootOptions, deps ServeDeps) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the auth HTTP API and, when metrics.addr is set, the metrics and
health endpoints. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd, false)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger, opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// runServe runs the API until ctx is done or a server fails.
func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts serveOptions, deps ServeDeps) error {
	deps = deps.withDefaults()

	db, err := deps.Connect(ctx, cfg.Database.URL, connectOptions(cfg, logger))
	if err != nil {
		return err
	}
	defer db.Close()
	logger.InfoContext(ctx, "connected to database")

	if opts.migrate {
		if err := deps.Migrate(cfg.Database.URL); err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "migrate on start").Wrap(err)
		}
		logger.InfoContext(ctx, "migrations applied")
	}

	var (
		obs         *observability.Server
		reg         prometheus.Registerer = prometheus.NewRegistry()
		httpMetrics *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, db.Ping, logger)
		reg = obs.Registry()
		httpMetrics = obs.Metrics()
	}

	a, err := newApp(db, cfg, logger, reg)
	if err != nil {
		return err
	}

	limiter := web.NewRateLimiter(web.RateLimiterConfig{
		Rate:            rate.Limit(cfg.RateLimit.RPS),
		Burst:           cfg.RateLimit.Burst,
		CleanupInterval: rateLimitSweepEvery,
	}, web.WithRateLimitLogger(logger), web.WithRateLimitMetrics(httpMetrics))
	defer limiter.Stop()

	srv := &http.Server{
		Handler: web.NewRouter(web.RouterDeps{
			Service:     a.service,
			Cookie:      web.CookieConfig{Secure: cfg.Cookie.Secure},
			RateLimiter: limiter,
			Metrics:     httpMetrics,
			Logger:      logger,
			Development: cfg.IsDevelopment(),
		}),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var obsErr <-chan error
	if obs != nil {
		obsErr, err = obs.Start()
		if err != nil {
			shutdownHTTP(srv, logger)
			return err
		}
	}

	logger.InfoContext(ctx, "authcore ready", "http_addr", ln.Addr().String(), "env", cfg.Env)
	deps.Ready(ln.Addr().String())

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		runErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
	case err, ok := <-obsErr:
		if ok && err != nil {
			runErr = oops.Code("OBSERVABILITY_FAILED").Wrap(err)
		}
	}

	shutdownHTTP(srv, logger)
	if obs != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := obs.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}

func shutdownHTTP(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("error stopping HTTP server", "error", err)
	}
}
