package matcher

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/textutils"

	"github.com/google/uuid"
)

// ConfirmationOutcome describes what a confirmation did to the association.
type ConfirmationOutcome string

const (
	OutcomeCreated   ConfirmationOutcome = "created"
	OutcomePromoted  ConfirmationOutcome = "promoted"
	OutcomeUnchanged ConfirmationOutcome = "unchanged"
)

// RecordConfirmation records that a reviewer confirmed email as belonging to providerID.
// The first confirmation creates an unverified association, the second verifies it,
// and later confirmations change nothing.
func (m *Matcher) RecordConfirmation(ctx context.Context, providerID uuid.UUID, email string) (models.ProviderEmailAssociation, ConfirmationOutcome, error) {
	email = textutils.NormalizeEmail(email)
	if providerID == uuid.Nil {
		return models.ProviderEmailAssociation{}, "", &domainerror.ValidationError{Field: "provider_id", Reason: "must not be empty"}
	}
	if !strings.Contains(email, "@") || textutils.EmailDomain(email) == "" {
		return models.ProviderEmailAssociation{}, "", &domainerror.ValidationError{Field: "email", Reason: fmt.Sprintf("%q is not an email address", email)}
	}

	now := m.now().UTC()
	existing, err := m.store.GetAssociation(ctx, providerID, email)
	if err != nil && !domainerror.IsNotFound(err) {
		return models.ProviderEmailAssociation{}, "", fmt.Errorf("failed to load email association: %w", err)
	}

	var assoc models.ProviderEmailAssociation
	var outcome ConfirmationOutcome
	switch {
	case existing == nil:
		assoc = models.ProviderEmailAssociation{ProviderID: providerID, Email: email, CreatedAt: now, UpdatedAt: now}
		outcome = OutcomeCreated
	case !existing.Verified:
		assoc = *existing
		assoc.Verified = true
		assoc.UpdatedAt = now
		outcome = OutcomePromoted
	default:
		return *existing, OutcomeUnchanged, nil
	}

	if err := m.store.SaveAssociation(ctx, assoc); err != nil {
		return models.ProviderEmailAssociation{}, "", fmt.Errorf("failed to save email association: %w", err)
	}
	m.logger.Info("Recorded email association confirmation",
		logging.F(logging.FieldProviderID, providerID.String()),
		logging.F(logging.FieldSender, email),
		logging.F(logging.FieldStatus, string(outcome)))
	return assoc, outcome, nil
}
