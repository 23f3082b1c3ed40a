package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WissemBellili/immersion-facile-sub001/convention"
)

// UowPerformer runs each unit of work inside one database transaction, so
// the convention write and its outbox event commit or roll back together.
type UowPerformer struct {
	pool *pgxpool.Pool
}

func NewUowPerformer(pool *pgxpool.Pool) *UowPerformer {
	return &UowPerformer{pool: pool}
}

func (p *UowPerformer) Perform(ctx context.Context, fn func(ctx context.Context, uow convention.UnitOfWork) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	uow := convention.UnitOfWork{
		Conventions: NewConventionRepository(tx),
		Outbox:      NewOutboxRepository(tx),
	}
	if err := fn(ctx, uow); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit transaction: %w", err)
	}
	return nil
}
