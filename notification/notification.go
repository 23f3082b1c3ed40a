// Package notification contains the event subscribers that turn workflow
// events into outgoing emails. Template rendering and the concrete mail
// transport live behind the EmailGateway port; subscribers only decide who
// gets notified and with which parameters.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/WissemBellili/immersion-facile-sub001/agency"
	"github.com/WissemBellili/immersion-facile-sub001/convention"
	"github.com/WissemBellili/immersion-facile-sub001/crawler"
	"github.com/WissemBellili/immersion-facile-sub001/outbox"
	"github.com/WissemBellili/immersion-facile-sub001/schedule"
)

// Email is one outgoing notification: a template kind, its recipients, and
// the parameters the renderer needs.
type Email struct {
	Kind       string
	Recipients []string
	Params     map[string]string
}

// EmailGateway sends one email. Implementations must be idempotent-friendly:
// the crawler redelivers events whose dispatch failed.
type EmailGateway interface {
	Send(ctx context.Context, email Email) error
}

// Notifier implements the notification use cases subscribed to convention
// events.
type Notifier struct {
	gateway  EmailGateway
	agencies agency.Reader
	logger   *slog.Logger
}

func NewNotifier(gateway EmailGateway, agencies agency.Reader, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{gateway: gateway, agencies: agencies, logger: logger}
}

// RegisterSubscribers binds the notifier to the topics it handles. Called
// once at startup.
func RegisterSubscribers(registry *crawler.Registry, n *Notifier) {
	registry.Register(convention.TopicConventionFullySigned, n.NotifyAgencyOfFullSignature)
	registry.Register(convention.TopicConventionAcceptedByValidator, n.NotifyActorsOfFinalValidation)
	registry.Register(convention.TopicConventionRequiresModification, n.NotifyActorsOfModificationRequest)
	registry.Register(convention.TopicConventionRejected, n.NotifyActorsOfRejection)
}

// NotifyAgencyOfFullSignature tells the agency a fully signed convention
// awaits its review.
func (n *Notifier) NotifyAgencyOfFullSignature(ctx context.Context, event outbox.DomainEvent) error {
	c, err := decodeConvention(event)
	if err != nil {
		return err
	}
	ag, err := n.agencies.GetByID(ctx, c.AgencyID)
	if err != nil {
		return fmt.Errorf("notification: agency %s: %w", c.AgencyID, err)
	}
	recipients := ag.CounsellorEmails
	if len(recipients) == 0 {
		recipients = ag.ValidatorEmails
	}
	return n.gateway.Send(ctx, Email{
		Kind:       "NEW_CONVENTION_REVIEW_NEEDED",
		Recipients: recipients,
		Params: map[string]string{
			"conventionId":     c.ID,
			"agencyName":       ag.Name,
			"beneficiaryEmail": c.Signatories.Beneficiary.Email,
			"dateStart":        c.DateStart,
			"dateEnd":          c.DateEnd,
		},
	})
}

// NotifyActorsOfFinalValidation confirms the validated convention to every
// signatory, with the computed hours and the readable schedule.
func (n *Notifier) NotifyActorsOfFinalValidation(ctx context.Context, event outbox.DomainEvent) error {
	c, err := decodeConvention(event)
	if err != nil {
		return err
	}
	totalHours := schedule.TotalImmersionHoursBetween(c.DateStart, c.DateEnd, c.Schedule)
	return n.gateway.Send(ctx, Email{
		Kind:       "VALIDATED_CONVENTION_FINAL_CONFIRMATION",
		Recipients: c.Signatories.Emails(),
		Params: map[string]string{
			"conventionId": c.ID,
			"dateStart":    c.DateStart,
			"dateEnd":      c.DateEnd,
			"totalHours":   fmt.Sprintf("%g", totalHours),
			"schedule":     schedule.PrettyPrint(c.Schedule, true),
		},
	})
}

// NotifyActorsOfModificationRequest asks the listed roles to edit and sign
// again.
func (n *Notifier) NotifyActorsOfModificationRequest(ctx context.Context, event outbox.DomainEvent) error {
	var payload convention.ModificationRequestedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("notification: decode modification payload: %w", err)
	}

	var recipients []string
	for _, role := range payload.Roles {
		if s := payload.Convention.Signatories.ForRole(role); s != nil {
			recipients = append(recipients, s.Email)
		}
	}
	if len(recipients) == 0 {
		n.logger.Warn("modification request without recipients", "convention_id", payload.Convention.ID)
		return nil
	}
	return n.gateway.Send(ctx, Email{
		Kind:       "CONVENTION_MODIFICATION_REQUEST_NOTIFICATION",
		Recipients: recipients,
		Params: map[string]string{
			"conventionId":  payload.Convention.ID,
			"justification": payload.Justification,
		},
	})
}

// NotifyActorsOfRejection informs the signatories the convention was refused
// and why.
func (n *Notifier) NotifyActorsOfRejection(ctx context.Context, event outbox.DomainEvent) error {
	c, err := decodeConvention(event)
	if err != nil {
		return err
	}
	return n.gateway.Send(ctx, Email{
		Kind:       "REJECTED_CONVENTION_NOTIFICATION",
		Recipients: c.Signatories.Emails(),
		Params: map[string]string{
			"conventionId":  c.ID,
			"justification": c.RejectionJustification,
		},
	})
}

func decodeConvention(event outbox.DomainEvent) (convention.Convention, error) {
	var c convention.Convention
	if err := json.Unmarshal(event.Payload, &c); err != nil {
		return convention.Convention{}, fmt.Errorf("notification: decode convention payload for %s: %w", event.Topic, err)
	}
	return c, nil
}
