package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// Config tunes the polling loop. Polling is a deliberate design choice over a
// message broker: delivery is not real-time, it lags by up to Interval.
type Config struct {
	// Interval between polling cycles. Zero or negative disables automatic
	// polling; ProcessNewEvents can still be called manually.
	Interval time.Duration
	// BatchSize caps the events fetched per cycle.
	BatchSize int
	// DispatchTimeout bounds the subscribers of a single event so one stalled
	// handler cannot block the whole cycle.
	DispatchTimeout time.Duration
}

const (
	defaultBatchSize       = 100
	defaultDispatchTimeout = 10 * time.Second
)

// Crawler reads pending events and dispatches them. One polling cycle runs to
// completion before the next is scheduled; a deployment runs a single active
// crawler.
type Crawler struct {
	repo     outbox.Repository
	registry *Registry
	clk      clock.Clock
	logger   *slog.Logger
	cfg      Config
	metrics  *Metrics
}

func New(repo outbox.Repository, registry *Registry, clk clock.Clock, logger *slog.Logger, cfg Config, metrics *Metrics) *Crawler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		repo:     repo,
		registry: registry,
		clk:      clk,
		logger:   logger,
		cfg:      cfg,
		metrics:  metrics,
	}
}

// Start polls on the configured interval until the context is cancelled. With
// a non-positive interval it returns immediately.
func (c *Crawler) Start(ctx context.Context) {
	if c.cfg.Interval <= 0 {
		c.logger.Info("outbox crawler disabled", "interval", c.cfg.Interval)
		return
	}

	c.logger.Info("outbox crawler started",
		"interval", c.cfg.Interval,
		"batch_size", c.cfg.BatchSize,
	)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("outbox crawler stopping")
			return
		case <-ticker.C:
			if err := c.ProcessNewEvents(ctx); err != nil {
				c.logger.Error("outbox crawl cycle failed", "error", err)
			}
		}
	}
}

// ProcessNewEvents runs one crawl cycle. A failing event is recorded and left
// for the next cycle; it never aborts the processing of the other fetched
// events.
func (c *Crawler) ProcessNewEvents(ctx context.Context) error {
	events, err := c.repo.GetUnpublishedEvents(ctx, c.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("crawler: fetch unpublished events: %w", err)
	}

	for _, event := range events {
		publication := c.dispatch(ctx, event)
		if c.metrics != nil {
			c.metrics.observe(event.Topic, publication.Outcome)
		}
		if publication.Outcome == outbox.OutcomeFailure {
			c.logger.Warn("event dispatch failed",
				"event_id", event.ID,
				"topic", event.Topic,
				"detail", publication.Detail,
			)
		}
		if err := c.repo.MarkPublicationAttempt(ctx, event.ID, publication); err != nil {
			c.logger.Error("record publication attempt",
				"event_id", event.ID,
				"error", err,
			)
		}
	}
	return nil
}

// dispatch invokes every subscriber of the event's topic under one bounded
// timeout. All must succeed for the event to be delivered; a topic with no
// subscribers is delivered as a no-op.
func (c *Crawler) dispatch(ctx context.Context, event outbox.DomainEvent) outbox.Publication {
	subscribers := c.registry.SubscribersFor(event.Topic)
	if len(subscribers) == 0 {
		return outbox.Publication{AttemptedAt: c.clk.Now(), Outcome: outbox.OutcomeSuccess}
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, c.cfg.DispatchTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(dispatchCtx)
	for _, sub := range subscribers {
		sub := sub
		g.Go(func() error {
			return invoke(gctx, sub, event)
		})
	}

	if err := g.Wait(); err != nil {
		return outbox.Publication{
			AttemptedAt: c.clk.Now(),
			Outcome:     outbox.OutcomeFailure,
			Detail:      err.Error(),
		}
	}
	return outbox.Publication{AttemptedAt: c.clk.Now(), Outcome: outbox.OutcomeSuccess}
}

// invoke shields the cycle from panicking subscribers.
func invoke(ctx context.Context, sub Subscriber, event outbox.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("crawler: subscriber panic: %v", r)
		}
	}()
	return sub(ctx, event)
}
