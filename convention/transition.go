package convention

import (
	"fmt"
	"time"
)

// Request is the caller's wish: a target status plus the free-text
// justification some targets require.
type Request struct {
	TargetStatus  Status `json:"status"`
	Justification string `json:"justification,omitempty"`
}

// TransitionOptions tunes behaviors the workflow keeps configurable.
type TransitionOptions struct {
	// RefreshValidationDate makes a re-validation overwrite DateValidation
	// instead of keeping the first one.
	RefreshValidationDate bool
}

// Outcome is the tagged result of a legal transition. Each variant carries
// exactly the fields it mutates; Apply produces the updated convention
// without touching anything else.
type Outcome interface {
	// Topic names the domain event announcing this outcome, or "" when the
	// transition raises none.
	Topic() string
	Apply(c Convention) Convention
}

// StatusChanged is the plain variant: only the status moves.
type StatusChanged struct {
	NewStatus  Status
	EventTopic string
}

func (o StatusChanged) Topic() string { return o.EventTopic }

func (o StatusChanged) Apply(c Convention) Convention {
	c.Status = o.NewStatus
	return c
}

// Signed stamps one signatory and moves to IN_REVIEW once everyone signed.
type Signed struct {
	Role      Role
	SignedAt  time.Time
	NewStatus Status
}

func (o Signed) Topic() string {
	if o.NewStatus == StatusInReview {
		return TopicConventionFullySigned
	}
	return TopicConventionPartiallySigned
}

func (o Signed) Apply(c Convention) Convention {
	c = c.Clone()
	signedAt := o.SignedAt
	if s := c.Signatories.ForRole(o.Role); s != nil {
		s.SignedAt = &signedAt
	}
	c.Status = o.NewStatus
	return c
}

// DraftReset sends the convention back to DRAFT: the document will be edited,
// so every signature is cleared and the listed roles must act again.
type DraftReset struct {
	Justification string
	RolesToAct    []Role
}

func (o DraftReset) Topic() string { return TopicConventionRequiresModification }

func (o DraftReset) Apply(c Convention) Convention {
	c = c.Clone()
	c.Status = StatusDraft
	c.Signatories.Beneficiary.SignedAt = nil
	c.Signatories.EstablishmentRepresentative.SignedAt = nil
	if c.Signatories.BeneficiaryRepresentative != nil {
		c.Signatories.BeneficiaryRepresentative.SignedAt = nil
	}
	if c.Signatories.BeneficiaryCurrentEmployer != nil {
		c.Signatories.BeneficiaryCurrentEmployer.SignedAt = nil
	}
	return c
}

// Rejected stores the mandatory justification alongside the terminal status.
type Rejected struct {
	Justification string
}

func (o Rejected) Topic() string { return TopicConventionRejected }

func (o Rejected) Apply(c Convention) Convention {
	c.Status = StatusRejected
	c.RejectionJustification = o.Justification
	return c
}

// Validated stamps the validation date, first-write-wins unless Refresh.
type Validated struct {
	NewStatus   Status
	ValidatedAt time.Time
	Refresh     bool
}

func (o Validated) Topic() string { return TopicConventionAcceptedByValidator }

func (o Validated) Apply(c Convention) Convention {
	c.Status = o.NewStatus
	if c.DateValidation == nil || o.Refresh {
		validatedAt := o.ValidatedAt
		c.DateValidation = &validatedAt
	}
	return c
}

// Transition checks the legality table and computes the outcome of moving the
// convention to the requested status. It is pure: now is injected and nothing
// is persisted. The role check runs before the status check so that an
// unauthorized caller learns nothing about the current state.
func Transition(current Convention, req Request, role Role, now time.Time, opts TransitionOptions) (Outcome, error) {
	cfg, ok := transitionConfigs[req.TargetStatus]
	if !ok {
		return nil, fmt.Errorf("convention: unknown target status %q", req.TargetStatus)
	}
	if !containsRole(cfg.validRoles, role) {
		return nil, ForbiddenTransitionError{Role: role, Target: req.TargetStatus}
	}
	if !containsStatus(cfg.validInitialStatuses, current.Status) {
		return nil, InvalidTransitionError{From: current.Status, To: req.TargetStatus}
	}

	switch req.TargetStatus {
	case StatusPartiallySigned, StatusInReview:
		return signOutcome(current, role, now)
	case StatusDraft:
		return DraftReset{
			Justification: req.Justification,
			RolesToAct:    current.Signatories.Roles(),
		}, nil
	case StatusRejected:
		if req.Justification == "" {
			return nil, ErrJustificationRequired
		}
		return Rejected{Justification: req.Justification}, nil
	case StatusAcceptedByValidator:
		return Validated{
			NewStatus:   StatusAcceptedByValidator,
			ValidatedAt: now,
			Refresh:     opts.RefreshValidationDate,
		}, nil
	default:
		return StatusChanged{NewStatus: req.TargetStatus, EventTopic: cfg.eventTopic}, nil
	}
}

// signOutcome sets exactly one signature and decides between
// PARTIALLY_SIGNED and IN_REVIEW by recomputing over all signatories.
func signOutcome(current Convention, role Role, now time.Time) (Outcome, error) {
	signatory := current.Signatories.ForRole(role)
	if signatory == nil {
		return nil, ForbiddenTransitionError{Role: role, Target: StatusPartiallySigned}
	}
	if signatory.Signed() {
		return nil, ErrAlreadySigned
	}

	after := current
	outcome := Signed{Role: role, SignedAt: now, NewStatus: StatusPartiallySigned}
	after = outcome.Apply(after)
	if after.Signatories.AllSigned() {
		outcome.NewStatus = StatusInReview
	}
	return outcome, nil
}
