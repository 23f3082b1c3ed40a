// The crawler binary runs the outbox dispatch loop on its own, for
// deployments where the API and the crawler scale separately. It requires the
// PG repositories; the in-memory stores cannot be shared across processes.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/config"
	"github.com/WissemBellili/immersion-facile-sub001/crawler"
	"github.com/WissemBellili/immersion-facile-sub001/db"
	"github.com/WissemBellili/immersion-facile-sub001/notification"
	"github.com/WissemBellili/immersion-facile-sub001/store/pg"
)

func main() {
	cfg, problems := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	for _, p := range problems {
		logger.Error("invalid configuration", "field", p.Field, "message", p.Message)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required for the crawler binary")
		os.Exit(1)
	}
	if len(problems) > 0 {
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool); err != nil {
		logger.Error("apply schema", "error", err)
		os.Exit(1)
	}

	registry := crawler.NewRegistry()
	gateway := notification.NewInMemoryEmailGateway(logger)
	notifier := notification.NewNotifier(gateway, pg.NewAgencyReader(pool), logger)
	notification.RegisterSubscribers(registry, notifier)

	promRegistry := prometheus.NewRegistry()
	metrics := crawler.NewMetrics(promRegistry)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
		logger.Info("metrics listening", "addr", ":9091")
		if err := http.ListenAndServe(":9091", mux); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	eventCrawler := crawler.New(pg.NewOutboxRepository(pool), registry, clock.RealClock{}, logger, crawler.Config{
		Interval:        cfg.CrawlerInterval,
		BatchSize:       cfg.CrawlerBatchSize,
		DispatchTimeout: cfg.DispatchTimeout,
	}, metrics)

	go eventCrawler.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
}
