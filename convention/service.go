package convention

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
)

// Service runs the convention use cases. Every state change and its domain
// event go through one UowPerformer transaction; validity and authorization
// are re-checked against the status read inside that same transaction.
type Service struct {
	uow     UowPerformer
	factory outbox.Factory
	clk     clock.Clock
	opts    TransitionOptions
}

func NewService(uow UowPerformer, factory outbox.Factory, clk clock.Clock, opts TransitionOptions) *Service {
	return &Service{
		uow:     uow,
		factory: factory,
		clk:     clk,
		opts:    opts,
	}
}

// Submit stores a freshly created convention and announces it. The record
// must start its lifecycle in DRAFT or READY_TO_SIGN.
func (s *Service) Submit(ctx context.Context, c Convention) error {
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("convention: invalid id %q: %w", c.ID, err)
	}
	if c.Status != StatusDraft && c.Status != StatusReadyToSign {
		return fmt.Errorf("convention: cannot submit with status %s", c.Status)
	}

	return s.uow.Perform(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := uow.Conventions.Save(ctx, c); err != nil {
			return err
		}
		event, err := s.factory.Create(TopicConventionSubmitted, c)
		if err != nil {
			return err
		}
		return uow.Outbox.Save(ctx, event)
	})
}

// UpdateStatus applies one transition requested by an already-authenticated
// role and persists the updated convention together with its event.
func (s *Service) UpdateStatus(ctx context.Context, id string, role Role, req Request) (Convention, error) {
	var updated Convention
	err := s.uow.Perform(ctx, func(ctx context.Context, uow UnitOfWork) error {
		current, err := uow.Conventions.GetByID(ctx, id)
		if err != nil {
			return err
		}

		outcome, err := Transition(current, req, role, s.clk.Now(), s.opts)
		if err != nil {
			return err
		}

		updated = outcome.Apply(current)
		if err := uow.Conventions.Update(ctx, updated); err != nil {
			return err
		}

		topic := outcome.Topic()
		if topic == "" {
			return nil
		}
		event, err := s.factory.Create(topic, eventPayload(outcome, updated))
		if err != nil {
			return err
		}
		return uow.Outbox.Save(ctx, event)
	})
	if err != nil {
		return Convention{}, err
	}
	return updated, nil
}

// Sign records the acting signatory's signature. The resulting status is
// recomputed from all signatories, so the caller never picks between
// PARTIALLY_SIGNED and IN_REVIEW.
func (s *Service) Sign(ctx context.Context, id string, role Role) (Convention, error) {
	return s.UpdateStatus(ctx, id, role, Request{TargetStatus: StatusPartiallySigned})
}

func eventPayload(outcome Outcome, updated Convention) any {
	if reset, ok := outcome.(DraftReset); ok {
		return ModificationRequestedPayload{
			Convention:    updated,
			Justification: reset.Justification,
			Roles:         reset.RolesToAct,
		}
	}
	return updated
}
