package claims

import (
	"fmt"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
)

// PaymentForClaim builds the pending payment that settles claim into the provider's
// nominated account. The lodgement reference is left empty so that the bank file
// falls back to the claim reference.
func PaymentForClaim(claim models.Claim, provider models.Provider, now time.Time) (models.Payment, error) {
	if err := CheckPayee(provider); err != nil {
		return models.Payment{}, err
	}
	if claim.Total <= 0 {
		return models.Payment{}, &domainerror.ValidationError{
			Field:  "amount",
			Reason: fmt.Sprintf("claim %s has non-positive total %d", claim.Reference, claim.Total),
		}
	}
	name := provider.AccountName
	if name == "" {
		name = provider.Name
	}
	return models.Payment{
		ID:            uuid.New(),
		ClaimID:       claim.ID,
		Amount:        claim.Total,
		BSB:           provider.BSB,
		AccountNumber: provider.AccountNumber,
		AccountName:   name,
		Status:        models.PaymentStatusPending,
		CreatedAt:     now,
	}, nil
}

// CheckPayee reports whether provider has the bank details a payment needs.
func CheckPayee(provider models.Provider) error {
	if provider.BSB == "" || provider.AccountNumber == "" {
		return &domainerror.ValidationError{
			Field:  "provider_bank_details",
			Reason: fmt.Sprintf("provider %s has no BSB or account number", provider.ID),
		}
	}
	return nil
}
