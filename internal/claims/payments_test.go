package claims

import (
	"testing"
	"time"

	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentForClaim(t *testing.T) {
	claim := models.Claim{ID: uuid.New(), Reference: "CLM-20261019-0001", Total: 38798}
	provider := models.Provider{ID: uuid.New(), Name: "Bright Futures", BSB: "062-000", AccountNumber: "12345678"}
	at := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

	p, err := PaymentForClaim(claim, provider, at)
	require.NoError(t, err)
	assert.Equal(t, claim.ID, p.ClaimID)
	assert.Equal(t, int64(38798), p.Amount)
	assert.Equal(t, "Bright Futures", p.AccountName, "falls back to the provider name")
	assert.Equal(t, models.PaymentStatusPending, p.Status)
	assert.Empty(t, p.Reference)
	assert.Equal(t, at, p.CreatedAt)

	provider.AccountName = "BRIGHT FUTURES PTY LTD"
	p, err = PaymentForClaim(claim, provider, at)
	require.NoError(t, err)
	assert.Equal(t, "BRIGHT FUTURES PTY LTD", p.AccountName)
}

func TestPaymentForClaim_Invalid(t *testing.T) {
	at := time.Now()
	var v *domainerror.ValidationError

	_, err := PaymentForClaim(models.Claim{Total: 100}, models.Provider{Name: "No Bank"}, at)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "provider_bank_details", v.Field)

	_, err = PaymentForClaim(models.Claim{Total: 0}, models.Provider{BSB: "062000", AccountNumber: "1"}, at)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "amount", v.Field)
}
