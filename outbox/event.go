// Package outbox holds the durable domain-event model of the transactional
// outbox: events are persisted in the same transaction as the state change
// that caused them and later dispatched by the crawler, which appends one
// publication record per attempt.
package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrDuplicateEvent signals a save with an id that already exists in the store.
var ErrDuplicateEvent = errors.New("outbox: duplicate event id")

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Publication records one dispatch attempt of an event.
type Publication struct {
	AttemptedAt time.Time `json:"attemptedAt"`
	Outcome     Outcome   `json:"outcome"`
	// Detail carries the error text of a failed attempt.
	Detail string `json:"detail,omitempty"`
}

// DomainEvent is the immutable record of something that happened. Only its
// publication history grows; everything else is fixed at creation.
type DomainEvent struct {
	ID           string          `json:"id"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Topic        string          `json:"topic"`
	Payload      json.RawMessage `json:"payload"`
	Publications []Publication   `json:"publications"`
}

// Delivered reports whether any publication attempt succeeded. A delivered
// event is terminal and must never be dispatched again.
func (e DomainEvent) Delivered() bool {
	for _, p := range e.Publications {
		if p.Outcome == OutcomeSuccess {
			return true
		}
	}
	return false
}

// Repository is the outbox store contract. Save appends one event and fails
// with ErrDuplicateEvent on id reuse. GetUnpublishedEvents returns, in
// insertion order, up to limit events without a success outcome; fetched
// events are considered in flight until their next publication attempt is
// recorded, so two concurrent crawl cycles never dispatch the same event.
// MarkPublicationAttempt appends one publication record, never replacing
// prior attempts.
type Repository interface {
	Save(ctx context.Context, event DomainEvent) error
	GetUnpublishedEvents(ctx context.Context, limit int) ([]DomainEvent, error)
	MarkPublicationAttempt(ctx context.Context, eventID string, p Publication) error
}
