package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/WissemBellili/immersion-facile-sub001/agency"
)

// AgencyReader reads agency profiles for the notification subscribers.
type AgencyReader struct {
	q Querier
}

func NewAgencyReader(q Querier) *AgencyReader {
	return &AgencyReader{q: q}
}

func (r *AgencyReader) GetByID(ctx context.Context, id string) (agency.Agency, error) {
	var a agency.Agency
	err := r.q.QueryRow(ctx, `
SELECT id, name, counsellor_emails, validator_emails
FROM agencies
WHERE id = $1
`, id).Scan(&a.ID, &a.Name, &a.CounsellorEmails, &a.ValidatorEmails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agency.Agency{}, agency.ErrNotFound
		}
		return agency.Agency{}, fmt.Errorf("pg: get agency %s: %w", id, err)
	}
	return a, nil
}

// Upsert writes one agency profile; used by seeding and tests.
func (r *AgencyReader) Upsert(ctx context.Context, a agency.Agency) error {
	_, err := r.q.Exec(ctx, `
INSERT INTO agencies (id, name, counsellor_emails, validator_emails)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    counsellor_emails = EXCLUDED.counsellor_emails,
    validator_emails = EXCLUDED.validator_emails
`, a.ID, a.Name, a.CounsellorEmails, a.ValidatorEmails)
	if err != nil {
		return fmt.Errorf("pg: upsert agency: %w", err)
	}
	return nil
}
