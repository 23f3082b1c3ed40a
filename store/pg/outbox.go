package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// claimExpiry bounds how long a fetched event stays invisible to other crawl
// cycles. A crawler that dies mid-dispatch releases its claim after this.
const claimExpiry = 120 * time.Second

// OutboxRepository persists domain events and their publication attempts.
// Fetching pending events claims them with FOR UPDATE SKIP LOCKED so two
// concurrent crawlers never dispatch the same event.
type OutboxRepository struct {
	q Querier
}

func NewOutboxRepository(q Querier) *OutboxRepository {
	return &OutboxRepository{q: q}
}

func (r *OutboxRepository) Save(ctx context.Context, event outbox.DomainEvent) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO outbox_events (id, occurred_at, topic, payload)
VALUES ($1, $2, $3, $4)
`, event.ID, event.OccurredAt, event.Topic, []byte(event.Payload))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return outbox.ErrDuplicateEvent
		}
		return fmt.Errorf("pg: insert outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepository) GetUnpublishedEvents(ctx context.Context, limit int) ([]outbox.DomainEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
WITH candidates AS (
	SELECT e.id
	FROM outbox_events e
	WHERE NOT EXISTS (
		SELECT 1 FROM outbox_publications p
		WHERE p.event_id = e.id AND p.outcome = 'success'
	)
	AND (e.claimed_at IS NULL OR e.claimed_at < now() - make_interval(secs => $2))
	ORDER BY e.position ASC
	FOR UPDATE SKIP LOCKED
	LIMIT $1
)
UPDATE outbox_events o
SET claimed_at = now()
FROM candidates c
WHERE o.id = c.id
RETURNING o.id, o.occurred_at, o.topic, o.payload, o.position
`, limit, claimExpiry.Seconds())
	if err != nil {
		return nil, fmt.Errorf("pg: claim pending events: %w", err)
	}
	defer rows.Close()

	type claimed struct {
		event    outbox.DomainEvent
		position int64
	}
	var claims []claimed
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.event.ID, &c.event.OccurredAt, &c.event.Topic, (*[]byte)(&c.event.Payload), &c.position); err != nil {
			return nil, fmt.Errorf("pg: scan claimed event: %w", err)
		}
		c.event.Publications = []outbox.Publication{}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: claim pending events: %w", err)
	}

	// UPDATE ... RETURNING does not guarantee order, re-sort by position.
	sort.Slice(claims, func(i, j int) bool { return claims[i].position < claims[j].position })

	events := make([]outbox.DomainEvent, 0, len(claims))
	for _, c := range claims {
		publications, err := r.publicationsFor(ctx, c.event.ID)
		if err != nil {
			return nil, err
		}
		c.event.Publications = publications
		events = append(events, c.event)
	}
	return events, nil
}

func (r *OutboxRepository) MarkPublicationAttempt(ctx context.Context, eventID string, p outbox.Publication) error {
	// Appending the attempt and releasing the claim happen in one statement.
	tag, err := r.q.Exec(ctx, `
WITH attempt AS (
	INSERT INTO outbox_publications (event_id, attempted_at, outcome, detail)
	VALUES ($1, $2, $3, $4)
)
UPDATE outbox_events
SET claimed_at = NULL
WHERE id = $1
`, eventID, p.AttemptedAt, string(p.Outcome), p.Detail)
	if err != nil {
		return fmt.Errorf("pg: record publication attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pg: record publication attempt: event %s not found", eventID)
	}
	return nil
}

// GetByID reads one event with its full publication history.
func (r *OutboxRepository) GetByID(ctx context.Context, eventID string) (outbox.DomainEvent, error) {
	var event outbox.DomainEvent
	err := r.q.QueryRow(ctx, `
SELECT id, occurred_at, topic, payload
FROM outbox_events
WHERE id = $1
`, eventID).Scan(&event.ID, &event.OccurredAt, &event.Topic, (*[]byte)(&event.Payload))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return outbox.DomainEvent{}, fmt.Errorf("pg: event %s not found", eventID)
		}
		return outbox.DomainEvent{}, fmt.Errorf("pg: get event %s: %w", eventID, err)
	}
	event.Publications, err = r.publicationsFor(ctx, eventID)
	if err != nil {
		return outbox.DomainEvent{}, err
	}
	return event, nil
}

func (r *OutboxRepository) publicationsFor(ctx context.Context, eventID string) ([]outbox.Publication, error) {
	rows, err := r.q.Query(ctx, `
SELECT attempted_at, outcome, detail
FROM outbox_publications
WHERE event_id = $1
ORDER BY id ASC
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("pg: load publications for %s: %w", eventID, err)
	}
	defer rows.Close()

	publications := []outbox.Publication{}
	for rows.Next() {
		var (
			p       outbox.Publication
			outcome string
		)
		if err := rows.Scan(&p.AttemptedAt, &outcome, &p.Detail); err != nil {
			return nil, fmt.Errorf("pg: scan publication: %w", err)
		}
		p.Outcome = outbox.Outcome(outcome)
		publications = append(publications, p)
	}
	return publications, rows.Err()
}
