// Package inmem provides the in-memory implementations of the convention and
// outbox stores plus a unit-of-work performer with genuine rollback
// (snapshot and restore), so transactional behavior can be exercised without
// a database. Selected at wiring time; the core never knows which
// implementation it talks to.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/WissemBellili/immersion-facile-sub001/convention"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

type ConventionRepository struct {
	mu   sync.RWMutex
	byID map[string]convention.Convention
}

func NewConventionRepository() *ConventionRepository {
	return &ConventionRepository{byID: make(map[string]convention.Convention)}
}

func (r *ConventionRepository) GetByID(ctx context.Context, id string) (convention.Convention, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return convention.Convention{}, convention.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *ConventionRepository) Save(ctx context.Context, c convention.Convention) error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("inmem: invalid convention id %q: %w", c.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; exists {
		return convention.ErrAlreadyExists
	}
	r.byID[c.ID] = c.Clone()
	return nil
}

func (r *ConventionRepository) Update(ctx context.Context, c convention.Convention) error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("inmem: invalid convention id %q: %w", c.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[c.ID]; !exists {
		return convention.ErrNotFound
	}
	r.byID[c.ID] = c.Clone()
	return nil
}

// Len reports the number of stored conventions; handy in atomicity tests.
func (r *ConventionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *ConventionRepository) snapshot() map[string]convention.Convention {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := make(map[string]convention.Convention, len(r.byID))
	for id, c := range r.byID {
		snap[id] = c.Clone()
	}
	return snap
}

func (r *ConventionRepository) restore(snap map[string]convention.Convention) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID = snap
}

// OutboxRepository keeps events in insertion order. Fetched events stay in
// flight until their next publication attempt is recorded, so two concurrent
// crawl cycles never pick up the same pending event.
type OutboxRepository struct {
	mu       sync.Mutex
	order    []string
	events   map[string]outbox.DomainEvent
	inflight map[string]bool
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{
		events:   make(map[string]outbox.DomainEvent),
		inflight: make(map[string]bool),
	}
}

func (r *OutboxRepository) Save(ctx context.Context, event outbox.DomainEvent) error {
	if _, err := uuid.Parse(event.ID); err != nil {
		return fmt.Errorf("inmem: invalid event id %q: %w", event.ID, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[event.ID]; exists {
		return outbox.ErrDuplicateEvent
	}
	r.events[event.ID] = cloneEvent(event)
	r.order = append(r.order, event.ID)
	return nil
}

func (r *OutboxRepository) GetUnpublishedEvents(ctx context.Context, limit int) ([]outbox.DomainEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []outbox.DomainEvent
	for _, id := range r.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		event := r.events[id]
		if event.Delivered() || r.inflight[id] {
			continue
		}
		r.inflight[id] = true
		out = append(out, cloneEvent(event))
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublicationAttempt(ctx context.Context, eventID string, p outbox.Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("inmem: unknown event %s", eventID)
	}
	event.Publications = append(event.Publications, p)
	r.events[eventID] = event
	delete(r.inflight, eventID)
	return nil
}

// GetByID returns one stored event; test helper.
func (r *OutboxRepository) GetByID(id string) (outbox.DomainEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return outbox.DomainEvent{}, false
	}
	return cloneEvent(event), true
}

// All returns every stored event in insertion order.
func (r *OutboxRepository) All() []outbox.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]outbox.DomainEvent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneEvent(r.events[id]))
	}
	return out
}

type outboxSnapshot struct {
	order    []string
	events   map[string]outbox.DomainEvent
	inflight map[string]bool
}

func (r *OutboxRepository) snapshot() outboxSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := outboxSnapshot{
		order:    append([]string(nil), r.order...),
		events:   make(map[string]outbox.DomainEvent, len(r.events)),
		inflight: make(map[string]bool, len(r.inflight)),
	}
	for id, event := range r.events {
		snap.events[id] = cloneEvent(event)
	}
	for id := range r.inflight {
		snap.inflight[id] = true
	}
	return snap
}

func (r *OutboxRepository) restore(snap outboxSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = snap.order
	r.events = snap.events
	r.inflight = snap.inflight
}

func cloneEvent(e outbox.DomainEvent) outbox.DomainEvent {
	out := e
	out.Payload = append([]byte(nil), e.Payload...)
	out.Publications = append([]outbox.Publication(nil), e.Publications...)
	return out
}

// UowPerformer serializes callbacks and restores both stores from a snapshot
// when the callback errors, mirroring a database rollback.
type UowPerformer struct {
	mu          sync.Mutex
	conventions *ConventionRepository
	outbox      *OutboxRepository
}

func NewUowPerformer(conventions *ConventionRepository, outboxRepo *OutboxRepository) *UowPerformer {
	return &UowPerformer{conventions: conventions, outbox: outboxRepo}
}

func (p *UowPerformer) Perform(ctx context.Context, fn func(ctx context.Context, uow convention.UnitOfWork) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	conventionSnap := p.conventions.snapshot()
	outboxSnap := p.outbox.snapshot()

	err := fn(ctx, convention.UnitOfWork{
		Conventions: p.conventions,
		Outbox:      p.outbox,
	})
	if err != nil {
		p.conventions.restore(conventionSnap)
		p.outbox.restore(outboxSnap)
		return err
	}
	return nil
}
