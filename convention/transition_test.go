package convention

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2023, 5, 2, 14, 0, 0, 0, time.UTC)

func testConvention(status Status) Convention {
	return Convention{
		ID:       "a99eaca1-ee70-4c90-b3f4-668d492f7392",
		AgencyID: "bbbbbbbb-1111-4111-9111-cccccccccccc",
		Status:   status,
		Signatories: Signatories{
			Beneficiary:                 Signatory{Email: "beneficiary@mail.com"},
			EstablishmentRepresentative: Signatory{Email: "establishment@mail.com"},
			BeneficiaryRepresentative:   &Signatory{Email: "legal-representative@mail.com"},
			BeneficiaryCurrentEmployer:  &Signatory{Email: "current-employer@mail.com"},
		},
		DateSubmission: "2023-05-01",
		DateStart:      "2023-06-01",
		DateEnd:        "2023-06-15",
	}
}

func TestTransitionMatrix(t *testing.T) {
	for target, cfg := range transitionConfigs {
		for _, role := range AllRoles {
			for _, initial := range AllStatuses {
				c := testConvention(initial)
				outcome, err := Transition(c, Request{TargetStatus: target, Justification: "needs work"}, role, testNow, TransitionOptions{})

				roleAllowed := containsRole(cfg.validRoles, role)
				statusAllowed := containsStatus(cfg.validInitialStatuses, initial)

				switch {
				case !roleAllowed:
					var forbidden ForbiddenTransitionError
					if !errors.As(err, &forbidden) {
						t.Errorf("target=%s role=%s initial=%s: expected forbidden, got outcome=%v err=%v", target, role, initial, outcome, err)
					} else if forbidden.Role != role || forbidden.Target != target {
						t.Errorf("forbidden error should carry role and target, got %+v", forbidden)
					}
				case !statusAllowed:
					var invalid InvalidTransitionError
					if !errors.As(err, &invalid) {
						t.Errorf("target=%s role=%s initial=%s: expected invalid transition, got outcome=%v err=%v", target, role, initial, outcome, err)
					} else if invalid.From != initial || invalid.To != target {
						t.Errorf("invalid error should carry both statuses, got %+v", invalid)
					}
				default:
					if err != nil {
						t.Errorf("target=%s role=%s initial=%s: expected success, got %v", target, role, initial, err)
						continue
					}
					if outcome == nil {
						t.Errorf("target=%s role=%s initial=%s: nil outcome on success", target, role, initial)
					}
				}
			}
		}
	}
}

func TestTransitionDraftResetClearsSignatures(t *testing.T) {
	c := testConvention(StatusPartiallySigned)
	signed := testNow.Add(-time.Hour)
	c.Signatories.Beneficiary.SignedAt = &signed
	c.Signatories.BeneficiaryRepresentative.SignedAt = &signed

	outcome, err := Transition(c, Request{TargetStatus: StatusDraft, Justification: "wrong dates"}, RoleCounsellor, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}

	reset, ok := outcome.(DraftReset)
	if !ok {
		t.Fatalf("expected DraftReset outcome, got %T", outcome)
	}
	if reset.Justification != "wrong dates" {
		t.Errorf("unexpected justification %q", reset.Justification)
	}
	if len(reset.RolesToAct) != 4 {
		t.Errorf("expected all four signatory roles to act, got %v", reset.RolesToAct)
	}

	updated := outcome.Apply(c)
	if updated.Status != StatusDraft {
		t.Errorf("expected DRAFT, got %s", updated.Status)
	}
	for _, role := range updated.Signatories.Roles() {
		if s := updated.Signatories.ForRole(role); s.Signed() {
			t.Errorf("expected %s signature cleared", role)
		}
	}
	// the input convention keeps its signatures
	if !c.Signatories.Beneficiary.Signed() || !c.Signatories.BeneficiaryRepresentative.Signed() {
		t.Errorf("Apply must not mutate its input")
	}
}

func TestTransitionRejectedRequiresJustification(t *testing.T) {
	c := testConvention(StatusInReview)

	if _, err := Transition(c, Request{TargetStatus: StatusRejected}, RoleValidator, testNow, TransitionOptions{}); !errors.Is(err, ErrJustificationRequired) {
		t.Fatalf("expected ErrJustificationRequired, got %v", err)
	}

	outcome, err := Transition(c, Request{TargetStatus: StatusRejected, Justification: "incomplete file"}, RoleValidator, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	updated := outcome.Apply(c)
	if updated.Status != StatusRejected || updated.RejectionJustification != "incomplete file" {
		t.Errorf("unexpected rejection state: %+v", updated)
	}
}

func TestTransitionValidationDateIdempotent(t *testing.T) {
	c := testConvention(StatusAcceptedByCounsellor)

	outcome, err := Transition(c, Request{TargetStatus: StatusAcceptedByValidator}, RoleValidator, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("first validation: %v", err)
	}
	validated := outcome.Apply(c)
	if validated.DateValidation == nil || !validated.DateValidation.Equal(testNow) {
		t.Fatalf("expected validation date %v, got %v", testNow, validated.DateValidation)
	}

	later := testNow.Add(48 * time.Hour)
	outcome, err = Transition(validated, Request{TargetStatus: StatusAcceptedByValidator}, RoleValidator, later, TransitionOptions{})
	if err != nil {
		t.Fatalf("re-validation: %v", err)
	}
	revalidated := outcome.Apply(validated)
	if !revalidated.DateValidation.Equal(testNow) {
		t.Errorf("re-validation must keep the first date, got %v", revalidated.DateValidation)
	}

	outcome, err = Transition(validated, Request{TargetStatus: StatusAcceptedByValidator}, RoleValidator, later, TransitionOptions{RefreshValidationDate: true})
	if err != nil {
		t.Fatalf("refreshing re-validation: %v", err)
	}
	refreshed := outcome.Apply(validated)
	if !refreshed.DateValidation.Equal(later) {
		t.Errorf("with RefreshValidationDate the date must move, got %v", refreshed.DateValidation)
	}
}

func TestTransitionSigning(t *testing.T) {
	c := testConvention(StatusReadyToSign)

	outcome, err := Transition(c, Request{TargetStatus: StatusPartiallySigned}, RoleBeneficiary, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("first signature: %v", err)
	}
	signed, ok := outcome.(Signed)
	if !ok {
		t.Fatalf("expected Signed outcome, got %T", outcome)
	}
	if signed.NewStatus != StatusPartiallySigned {
		t.Errorf("one signature out of four must stay PARTIALLY_SIGNED, got %s", signed.NewStatus)
	}
	if outcome.Topic() != TopicConventionPartiallySigned {
		t.Errorf("unexpected topic %q", outcome.Topic())
	}

	c = outcome.Apply(c)
	if !c.Signatories.Beneficiary.Signed() {
		t.Fatalf("beneficiary signature not stamped")
	}
	if c.Signatories.EstablishmentRepresentative.Signed() {
		t.Fatalf("only the acting signatory must be stamped")
	}

	// signing twice is rejected
	if _, err := Transition(c, Request{TargetStatus: StatusPartiallySigned}, RoleBeneficiary, testNow, TransitionOptions{}); !errors.Is(err, ErrAlreadySigned) {
		t.Errorf("expected ErrAlreadySigned, got %v", err)
	}

	for _, role := range []Role{RoleEstablishmentRepresentative, RoleBeneficiaryRepresentative} {
		outcome, err = Transition(c, Request{TargetStatus: StatusPartiallySigned}, role, testNow, TransitionOptions{})
		if err != nil {
			t.Fatalf("signature by %s: %v", role, err)
		}
		c = outcome.Apply(c)
	}
	if c.Status != StatusPartiallySigned {
		t.Fatalf("three signatures out of four must stay PARTIALLY_SIGNED, got %s", c.Status)
	}

	outcome, err = Transition(c, Request{TargetStatus: StatusPartiallySigned}, RoleBeneficiaryCurrentEmployer, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("last signature: %v", err)
	}
	if outcome.Topic() != TopicConventionFullySigned {
		t.Errorf("last signature must raise %s, got %q", TopicConventionFullySigned, outcome.Topic())
	}
	c = outcome.Apply(c)
	if c.Status != StatusInReview {
		t.Errorf("all signatures collected must promote to IN_REVIEW, got %s", c.Status)
	}
}

func TestTransitionReadyToSignRaisesNoEvent(t *testing.T) {
	c := testConvention(StatusDraft)

	outcome, err := Transition(c, Request{TargetStatus: StatusReadyToSign}, RoleBeneficiary, testNow, TransitionOptions{})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if outcome.Topic() != "" {
		t.Errorf("READY_TO_SIGN is not event-worthy, got topic %q", outcome.Topic())
	}
}
