package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/WissemBellili/immersion-facile-sub001/agency"
	"github.com/WissemBellili/immersion-facile-sub001/api"
	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/config"
	"github.com/WissemBellili/immersion-facile-sub001/convention"
	"github.com/WissemBellili/immersion-facile-sub001/crawler"
	"github.com/WissemBellili/immersion-facile-sub001/db"
	"github.com/WissemBellili/immersion-facile-sub001/magiclink"
	"github.com/WissemBellili/immersion-facile-sub001/notification"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
	"github.com/WissemBellili/immersion-facile-sub001/store/inmem"
	"github.com/WissemBellili/immersion-facile-sub001/store/pg"
)

func main() {
	cfg, problems := config.Load()

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if len(problems) > 0 {
		for _, p := range problems {
			logger.Error("invalid configuration", "field", p.Field, "message", p.Message)
		}
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}

	var (
		performer convention.UowPerformer
		eventRepo outbox.Repository
		agencies  agency.Reader
	)
	switch cfg.Repositories {
	case config.RepositoriesPG:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("bootstrap database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("ping database", "error", err)
			os.Exit(1)
		}
		if err := pg.Migrate(ctx, pool); err != nil {
			logger.Error("apply schema", "error", err)
			os.Exit(1)
		}
		performer = pg.NewUowPerformer(pool)
		eventRepo = pg.NewOutboxRepository(pool)
		agencies = pg.NewAgencyReader(pool)
		logger.Info("connected to database")
	default:
		conventions := inmem.NewConventionRepository()
		events := inmem.NewOutboxRepository()
		performer = inmem.NewUowPerformer(conventions, events)
		eventRepo = events
		agencies = agency.NewInMemoryReader()
		logger.Info("using in-memory repositories")
	}

	service := convention.NewService(performer, outbox.NewFactory(clk), clk, convention.TransitionOptions{})
	links := magiclink.NewService(cfg.JWTSecret, cfg.MagicLinkTTL, clk)
	admin := magiclink.NewAdminService(cfg.BackofficeUsername, cfg.BackofficePasswordHash, cfg.JWTSecret, 0, clk)

	registry := crawler.NewRegistry()
	gateway := notification.NewInMemoryEmailGateway(logger)
	notifier := notification.NewNotifier(gateway, agencies, logger)
	notification.RegisterSubscribers(registry, notifier)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	metrics := crawler.NewMetrics(promRegistry)

	eventCrawler := crawler.New(eventRepo, registry, clk, logger, crawler.Config{
		Interval:        cfg.CrawlerInterval,
		BatchSize:       cfg.CrawlerBatchSize,
		DispatchTimeout: cfg.DispatchTimeout,
	}, metrics)
	go eventCrawler.Start(ctx)

	handler := api.NewHandler(service, links, admin, logger)
	router := api.NewRouter(handler, promRegistry)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown HTTP server", "error", err)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
