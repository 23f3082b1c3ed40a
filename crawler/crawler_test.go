package crawler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/crawler"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
	"github.com/WissemBellili/immersion-facile-sub001/store/inmem"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func saveEvent(t *testing.T, repo *inmem.OutboxRepository, topic string) outbox.DomainEvent {
	t.Helper()
	event := outbox.DomainEvent{
		ID:           uuid.NewString(),
		OccurredAt:   time.Date(2023, 5, 2, 10, 0, 0, 0, time.UTC),
		Topic:        topic,
		Payload:      []byte(`{}`),
		Publications: []outbox.Publication{},
	}
	if err := repo.Save(context.Background(), event); err != nil {
		t.Fatalf("save event: %v", err)
	}
	return event
}

func TestProcessNewEventsIsolatesFailures(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	registry := crawler.NewRegistry()

	registry.Register("ConventionRejected", func(ctx context.Context, e outbox.DomainEvent) error {
		return errors.New("partner api returned 503")
	})
	var delivered atomic.Int32
	registry.Register("ConventionFullySigned", func(ctx context.Context, e outbox.DomainEvent) error {
		delivered.Add(1)
		return nil
	})

	failing := saveEvent(t, repo, "ConventionRejected")
	succeeding := saveEvent(t, repo, "ConventionFullySigned")

	clk := clock.NewMock(time.Date(2023, 5, 2, 11, 0, 0, 0, time.UTC))
	c := crawler.New(repo, registry, clk, discardLogger(), crawler.Config{}, nil)

	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	failed, _ := repo.GetByID(failing.ID)
	if len(failed.Publications) != 1 {
		t.Fatalf("expected one failure publication, got %v", failed.Publications)
	}
	if failed.Publications[0].Outcome != outbox.OutcomeFailure {
		t.Errorf("expected failure outcome, got %s", failed.Publications[0].Outcome)
	}
	if failed.Publications[0].Detail == "" {
		t.Errorf("failure publication must carry the error detail")
	}
	if !failed.Publications[0].AttemptedAt.Equal(clk.Now()) {
		t.Errorf("attempt time must come from the injected clock")
	}
	if failed.Delivered() {
		t.Errorf("failed event must stay pending")
	}

	ok, _ := repo.GetByID(succeeding.ID)
	if !ok.Delivered() {
		t.Errorf("expected the second event delivered despite the first failing")
	}
	if delivered.Load() != 1 {
		t.Errorf("expected subscriber invoked once, got %d", delivered.Load())
	}
}

func TestProcessNewEventsDoesNotRedeliver(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	registry := crawler.NewRegistry()

	var calls atomic.Int32
	registry.Register("ConventionFullySigned", func(ctx context.Context, e outbox.DomainEvent) error {
		calls.Add(1)
		return nil
	})
	saveEvent(t, repo, "ConventionFullySigned")

	c := crawler.New(repo, registry, clock.RealClock{}, discardLogger(), crawler.Config{}, nil)

	for i := 0; i < 3; i++ {
		if err := c.ProcessNewEvents(context.Background()); err != nil {
			t.Fatalf("process cycle %d: %v", i, err)
		}
	}

	if calls.Load() != 1 {
		t.Errorf("delivered event must never be re-dispatched, got %d calls", calls.Load())
	}
}

func TestProcessNewEventsRetriesFailedEvents(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	registry := crawler.NewRegistry()

	var calls atomic.Int32
	registry.Register("ConventionRejected", func(ctx context.Context, e outbox.DomainEvent) error {
		if calls.Add(1) == 1 {
			return errors.New("transient failure")
		}
		return nil
	})
	event := saveEvent(t, repo, "ConventionRejected")

	c := crawler.New(repo, registry, clock.RealClock{}, discardLogger(), crawler.Config{}, nil)

	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("second cycle: %v", err)
	}

	stored, _ := repo.GetByID(event.ID)
	if len(stored.Publications) != 2 {
		t.Fatalf("expected two publication records, got %v", stored.Publications)
	}
	if stored.Publications[0].Outcome != outbox.OutcomeFailure || stored.Publications[1].Outcome != outbox.OutcomeSuccess {
		t.Errorf("expected failure then success, got %v", stored.Publications)
	}
}

func TestProcessNewEventsUnroutableTopicIsDelivered(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	event := saveEvent(t, repo, "ConventionSubmittedByBeneficiary")

	c := crawler.New(repo, crawler.NewRegistry(), clock.RealClock{}, discardLogger(), crawler.Config{}, nil)
	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := repo.GetByID(event.ID)
	if !stored.Delivered() {
		t.Errorf("a topic without subscribers must be marked delivered as a no-op")
	}
}

func TestProcessNewEventsRecoversFromPanickingSubscriber(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	registry := crawler.NewRegistry()
	registry.Register("ConventionFullySigned", func(ctx context.Context, e outbox.DomainEvent) error {
		panic("nil dereference in handler")
	})
	event := saveEvent(t, repo, "ConventionFullySigned")

	c := crawler.New(repo, registry, clock.RealClock{}, discardLogger(), crawler.Config{}, nil)
	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored, _ := repo.GetByID(event.ID)
	if stored.Delivered() {
		t.Fatalf("panicking subscriber must record a failure")
	}
	if len(stored.Publications) != 1 || stored.Publications[0].Outcome != outbox.OutcomeFailure {
		t.Fatalf("expected one failure publication, got %v", stored.Publications)
	}
}

func TestProcessNewEventsHonorsDispatchTimeout(t *testing.T) {
	repo := inmem.NewOutboxRepository()
	registry := crawler.NewRegistry()
	registry.Register("ConventionFullySigned", func(ctx context.Context, e outbox.DomainEvent) error {
		<-ctx.Done()
		return ctx.Err()
	})
	event := saveEvent(t, repo, "ConventionFullySigned")

	c := crawler.New(repo, registry, clock.RealClock{}, discardLogger(), crawler.Config{
		DispatchTimeout: 20 * time.Millisecond,
	}, nil)

	start := time.Now()
	if err := c.ProcessNewEvents(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("stalled subscriber must not block the cycle")
	}

	stored, _ := repo.GetByID(event.ID)
	if stored.Delivered() {
		t.Errorf("timed-out dispatch must be recorded as failure and retried later")
	}
}
