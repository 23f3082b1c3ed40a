// Package convention models the immersion convention approval workflow: the
// record itself, the status state machine with its role authorization table,
// and the use cases that persist a transition and its domain event in one
// transaction.
package convention

import (
	"time"

	"github.com/WissemBellili/immersion-facile-sub001/schedule"
)

type Status string

const (
	StatusDraft                Status = "DRAFT"
	StatusReadyToSign          Status = "READY_TO_SIGN"
	StatusPartiallySigned      Status = "PARTIALLY_SIGNED"
	StatusInReview             Status = "IN_REVIEW"
	StatusAcceptedByCounsellor Status = "ACCEPTED_BY_COUNSELLOR"
	StatusAcceptedByValidator  Status = "ACCEPTED_BY_VALIDATOR"
	StatusRejected             Status = "REJECTED"
	StatusCancelled            Status = "CANCELLED"
)

type Role string

const (
	RoleBeneficiary                 Role = "beneficiary"
	RoleEstablishmentRepresentative Role = "establishment-representative"
	RoleBeneficiaryRepresentative   Role = "beneficiary-representative"
	RoleBeneficiaryCurrentEmployer  Role = "beneficiary-current-employer"
	RoleCounsellor                  Role = "counsellor"
	RoleValidator                   Role = "validator"
	RoleBackOffice                  Role = "back-office"
)

// Signatory is one party that must sign the convention. Signed iff SignedAt
// is set.
type Signatory struct {
	Email    string     `json:"email"`
	SignedAt *time.Time `json:"signedAt,omitempty"`
}

func (s Signatory) Signed() bool {
	return s.SignedAt != nil
}

// Signatories is the fixed set of signing parties. The beneficiary
// representative and the beneficiary's current employer are optional.
type Signatories struct {
	Beneficiary                 Signatory  `json:"beneficiary"`
	EstablishmentRepresentative Signatory  `json:"establishmentRepresentative"`
	BeneficiaryRepresentative   *Signatory `json:"beneficiaryRepresentative,omitempty"`
	BeneficiaryCurrentEmployer  *Signatory `json:"beneficiaryCurrentEmployer,omitempty"`
}

// ForRole returns the signatory acting under the given role, or nil when the
// role is not a signing role or the optional party is absent.
func (s *Signatories) ForRole(role Role) *Signatory {
	switch role {
	case RoleBeneficiary:
		return &s.Beneficiary
	case RoleEstablishmentRepresentative:
		return &s.EstablishmentRepresentative
	case RoleBeneficiaryRepresentative:
		return s.BeneficiaryRepresentative
	case RoleBeneficiaryCurrentEmployer:
		return s.BeneficiaryCurrentEmployer
	default:
		return nil
	}
}

// Roles lists the signing roles present on this convention.
func (s Signatories) Roles() []Role {
	roles := []Role{RoleBeneficiary, RoleEstablishmentRepresentative}
	if s.BeneficiaryRepresentative != nil {
		roles = append(roles, RoleBeneficiaryRepresentative)
	}
	if s.BeneficiaryCurrentEmployer != nil {
		roles = append(roles, RoleBeneficiaryCurrentEmployer)
	}
	return roles
}

// Emails lists the addresses of every signing party present.
func (s Signatories) Emails() []string {
	emails := []string{s.Beneficiary.Email, s.EstablishmentRepresentative.Email}
	if s.BeneficiaryRepresentative != nil {
		emails = append(emails, s.BeneficiaryRepresentative.Email)
	}
	if s.BeneficiaryCurrentEmployer != nil {
		emails = append(emails, s.BeneficiaryCurrentEmployer.Email)
	}
	return emails
}

// AllSigned reports whether every present signatory has signed.
func (s Signatories) AllSigned() bool {
	if !s.Beneficiary.Signed() || !s.EstablishmentRepresentative.Signed() {
		return false
	}
	if s.BeneficiaryRepresentative != nil && !s.BeneficiaryRepresentative.Signed() {
		return false
	}
	if s.BeneficiaryCurrentEmployer != nil && !s.BeneficiaryCurrentEmployer.Signed() {
		return false
	}
	return true
}

// clone deep-copies the optional pointer-held signatories so that applying
// an outcome to a value copy never mutates the caller's convention.
func (s Signatories) clone() Signatories {
	out := s
	if s.BeneficiaryRepresentative != nil {
		cp := *s.BeneficiaryRepresentative
		out.BeneficiaryRepresentative = &cp
	}
	if s.BeneficiaryCurrentEmployer != nil {
		cp := *s.BeneficiaryCurrentEmployer
		out.BeneficiaryCurrentEmployer = &cp
	}
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (c Convention) Clone() Convention {
	out := c
	out.Signatories = c.Signatories.clone()
	if c.DateValidation != nil {
		dv := *c.DateValidation
		out.DateValidation = &dv
	}
	return out
}

// Convention is one internship/immersion agreement tracked through the
// approval workflow. It is mutated exclusively through the state machine and
// never deleted; REJECTED and CANCELLED rows are retained for audit.
type Convention struct {
	ID                     string            `json:"id"`
	AgencyID               string            `json:"agencyId"`
	Status                 Status            `json:"status"`
	Signatories            Signatories       `json:"signatories"`
	Schedule               schedule.Schedule `json:"schedule"`
	DateSubmission         string            `json:"dateSubmission"`
	DateStart              string            `json:"dateStart"`
	DateEnd                string            `json:"dateEnd"`
	DateValidation         *time.Time        `json:"dateValidation,omitempty"`
	RejectionJustification string            `json:"rejectionJustification,omitempty"`
}
