package convention

import (
	"context"

	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// Repository is the convention store contract consumed inside a unit of work.
type Repository interface {
	GetByID(ctx context.Context, id string) (Convention, error)
	Save(ctx context.Context, c Convention) error
	Update(ctx context.Context, c Convention) error
}

// UnitOfWork groups the stores bound to one transaction. Everything written
// through it commits together or not at all.
type UnitOfWork struct {
	Conventions Repository
	Outbox      outbox.Repository
}

// UowPerformer opens a transaction, hands the callback a UnitOfWork bound to
// it, commits when the callback returns nil, and rolls everything back (then
// returns the error) otherwise.
type UowPerformer interface {
	Perform(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
