package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"tutela/internal/consent/activity"
	"tutela/internal/consent/handler"
	"tutela/internal/consent/monitor"
	"tutela/internal/consent/service"
	"tutela/internal/consent/store"
	"tutela/internal/platform/config"
	"tutela/internal/platform/database"
	"tutela/internal/platform/docstore"
	"tutela/internal/platform/health"
	"tutela/internal/platform/httpserver"
	"tutela/internal/platform/logger"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/stream"
	httptransport "tutela/internal/transport/http"
	"tutela/migrations"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	log.Info("initializing tutela",
		"addr", cfg.Addr,
		"primary_configured", cfg.DatabaseURL != "",
		"docstore_path", cfg.DocstorePath,
	)

	m := metrics.New()
	ctx := context.Background()

	// Backend selection happens once, here. After Bind the repository only
	// changes through the admin reconnect endpoint.
	selector := store.NewSelector(log, m, selectorOptions(cfg)...)
	binding := selector.Bind(ctx)
	defer binding.Close() //nolint:errcheck // process is exiting

	mon := monitor.New(binding, log, m, monitor.WithOpTimeout(cfg.OpTimeout))

	loader := activity.NewLoader(cfg.ActivitiesFile, log)
	if err := loader.Seed(ctx, mon); err != nil {
		log.Error("failed to seed processing activity register", "error", err)
		os.Exit(1)
	}
	if cfg.WatchActivities && cfg.ActivitiesFile != "" {
		watcher, err := activity.NewWatcher(loader, mon, log)
		if err != nil {
			log.Error("failed to watch processing activity register", "error", err)
			os.Exit(1)
		}
		if err := watcher.Start(); err != nil {
			log.Error("failed to watch processing activity register", "error", err)
			os.Exit(1)
		}
		defer watcher.Stop()
	}

	var svcOpts []service.Option
	if len(cfg.AuditBrokers) > 0 {
		mirror, err := stream.New(stream.Config{
			Brokers: cfg.AuditBrokers,
			Topic:   cfg.AuditTopic,
		}, log, m)
		if err != nil {
			log.Error("failed to build audit mirror", "error", err)
			os.Exit(1)
		}
		defer mirror.Close() //nolint:errcheck // best-effort flush on exit
		svcOpts = append(svcOpts, service.WithAuditMirror(mirror))
	}

	svc := service.New(mon, log, m, svcOpts...)

	if cfg.ProbeInterval > 0 {
		prober := selector.NewProber(binding, cfg.ProbeInterval)
		prober.Start()
		defer prober.Stop()
	}

	rebinder := httptransport.RebinderFunc(func(ctx context.Context) (store.Backend, bool) {
		return selector.Reconnect(ctx, binding)
	})
	router := httptransport.NewRouter(
		handler.New(svc, log),
		health.New(mon),
		httptransport.NewAdminHandler(rebinder, log),
		log,
		m,
		httptransport.Options{
			TrustedProxies: cfg.TrustedProxies,
			AdminToken:     cfg.AdminToken,
		},
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr, "backend", binding.Backend())

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// selectorOptions assembles backend factories from configuration. The primary
// is omitted entirely when no database URL is set, so selection starts at the
// secondary without a dialing delay.
func selectorOptions(cfg config.Config) []store.Option {
	opts := []store.Option{
		store.WithProbeTimeout(cfg.ProbeTimeout),
		store.WithSecondary(func(context.Context) (store.Repository, error) {
			db, err := docstore.Open(docstore.DefaultConfig(cfg.DocstorePath))
			if err != nil {
				return nil, err
			}
			return store.NewDocument(db)
		}),
	}

	if cfg.DatabaseURL != "" {
		opts = append(opts, store.WithPrimary(func(ctx context.Context) (store.Repository, error) {
			dbcfg := database.DefaultConfig()
			dbcfg.URL = cfg.DatabaseURL
			pool, err := database.Open(ctx, dbcfg)
			if err != nil {
				return nil, err
			}
			if err := pool.Migrate(ctx, migrations.FS); err != nil {
				_ = pool.Close()
				return nil, err
			}
			return store.NewPostgres(pool.DB()), nil
		}))
	}

	return opts
}
