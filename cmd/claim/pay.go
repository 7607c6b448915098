package claim

import (
	"context"
	"fmt"

	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ClaimIDs holds the --claim values of the pay subcommand.
var ClaimIDs []string

// PayCmd creates the provider payment for claims that do not have one yet.
var PayCmd = &cobra.Command{
	Use:   "pay",
	Short: "Create pending payments for existing claims",
	Long: `Create a pending payment to the provider for each given claim. Claims that are
not pending, or that already have a payment, are rejected.`,
	RunE: payFunc,
}

func init() {
	PayCmd.Flags().StringSliceVar(&ClaimIDs, "claim", nil, "Claim id to pay (repeatable)")
	_ = PayCmd.MarkFlagRequired("claim")
	Cmd.AddCommand(PayCmd)
}

func payFunc(cmd *cobra.Command, args []string) error {
	ids, err := root.ParseIDs(ClaimIDs)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	st := root.App.GetStore()

	paid, err := claimsWithPayments(ctx, st)
	if err != nil {
		return err
	}

	type payable struct {
		claim    models.Claim
		provider models.Provider
	}
	todo := make([]payable, 0, len(ids))
	for _, id := range ids {
		c, err := st.GetClaim(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != models.ClaimStatusPending {
			return &domainerror.StatusError{Entity: "claim", ID: id.String(), Actual: string(c.Status), Expected: string(models.ClaimStatusPending)}
		}
		if paid[id] {
			return &domainerror.ValidationError{Field: "claim_ids", Reason: fmt.Sprintf("claim %s already has a payment", c.Reference)}
		}
		if c.ProviderID == nil {
			return &domainerror.ValidationError{Field: "provider_id", Reason: fmt.Sprintf("claim %s has no provider to pay", c.Reference)}
		}
		provider, err := st.GetProvider(ctx, *c.ProviderID)
		if err != nil {
			return err
		}
		if err := claims.CheckPayee(*provider); err != nil {
			return err
		}
		todo = append(todo, payable{claim: *c, provider: *provider})
		paid[id] = true
	}

	res := Result{}
	for _, p := range todo {
		payment, err := savePayment(ctx, st, p.claim, p.provider)
		if err != nil {
			return err
		}
		res.Claims = append(res.Claims, p.claim)
		res.Payments = append(res.Payments, payment)
	}
	res.Processed = len(res.Payments)
	root.Log.Info("Payments created", logging.F(logging.FieldPaymentCount, len(res.Payments)))
	return root.WriteJSON(cmd, res)
}

func claimsWithPayments(ctx context.Context, st store.Repository) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	for _, status := range []models.PaymentStatus{
		models.PaymentStatusPending,
		models.PaymentStatusIncluded,
		models.PaymentStatusSubmitted,
		models.PaymentStatusCleared,
	} {
		payments, err := st.ListPaymentsByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		for _, p := range payments {
			out[p.ClaimID] = true
		}
	}
	return out, nil
}
