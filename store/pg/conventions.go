package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/WissemBellili/immersion-facile-sub001/convention"
	"github.com/WissemBellili/immersion-facile-sub001/schedule"
)

// ConventionRepository stores conventions with signatories and schedule as
// jsonb documents. Immersion dates stay text ISO dates, matching the domain
// model.
type ConventionRepository struct {
	q Querier
}

func NewConventionRepository(q Querier) *ConventionRepository {
	return &ConventionRepository{q: q}
}

const conventionColumns = `id, agency_id, status, signatories, schedule,
date_submission, date_start, date_end, date_validation, rejection_justification`

func (r *ConventionRepository) GetByID(ctx context.Context, id string) (convention.Convention, error) {
	row := r.q.QueryRow(ctx, `
SELECT `+conventionColumns+`
FROM conventions
WHERE id = $1
`, id)
	c, err := scanConvention(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return convention.Convention{}, convention.ErrNotFound
		}
		return convention.Convention{}, fmt.Errorf("pg: get convention %s: %w", id, err)
	}
	return c, nil
}

func (r *ConventionRepository) Save(ctx context.Context, c convention.Convention) error {
	signatories, sched, err := encodeDocuments(c)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, `
INSERT INTO conventions (`+conventionColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`, c.ID, c.AgencyID, string(c.Status), signatories, sched,
		c.DateSubmission, c.DateStart, c.DateEnd, c.DateValidation, c.RejectionJustification)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return convention.ErrAlreadyExists
		}
		return fmt.Errorf("pg: insert convention: %w", err)
	}
	return nil
}

func (r *ConventionRepository) Update(ctx context.Context, c convention.Convention) error {
	signatories, sched, err := encodeDocuments(c)
	if err != nil {
		return err
	}

	tag, err := r.q.Exec(ctx, `
UPDATE conventions
SET agency_id = $2,
    status = $3,
    signatories = $4,
    schedule = $5,
    date_submission = $6,
    date_start = $7,
    date_end = $8,
    date_validation = $9,
    rejection_justification = $10
WHERE id = $1
`, c.ID, c.AgencyID, string(c.Status), signatories, sched,
		c.DateSubmission, c.DateStart, c.DateEnd, c.DateValidation, c.RejectionJustification)
	if err != nil {
		return fmt.Errorf("pg: update convention: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return convention.ErrNotFound
	}
	return nil
}

func encodeDocuments(c convention.Convention) ([]byte, []byte, error) {
	signatories, err := json.Marshal(c.Signatories)
	if err != nil {
		return nil, nil, fmt.Errorf("pg: marshal signatories: %w", err)
	}
	sched, err := json.Marshal(c.Schedule)
	if err != nil {
		return nil, nil, fmt.Errorf("pg: marshal schedule: %w", err)
	}
	return signatories, sched, nil
}

func scanConvention(row pgx.Row) (convention.Convention, error) {
	var (
		c                 convention.Convention
		status            string
		signatories, schd []byte
	)
	if err := row.Scan(&c.ID, &c.AgencyID, &status, &signatories, &schd,
		&c.DateSubmission, &c.DateStart, &c.DateEnd, &c.DateValidation, &c.RejectionJustification); err != nil {
		return convention.Convention{}, err
	}
	c.Status = convention.Status(status)
	if err := json.Unmarshal(signatories, &c.Signatories); err != nil {
		return convention.Convention{}, fmt.Errorf("decode signatories: %w", err)
	}
	c.Schedule = schedule.Schedule{}
	if err := json.Unmarshal(schd, &c.Schedule); err != nil {
		return convention.Convention{}, fmt.Errorf("decode schedule: %w", err)
	}
	return c, nil
}
