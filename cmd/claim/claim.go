// Package claim handles the claim command.
package claim

import (
	"context"
	"fmt"

	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/domainerror"
	"fjacquet/claimflow/internal/export"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/store"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Flags for the claim command.
var (
	InvoiceIDs []string
	CreatedBy  string
	ExportFile string
	Delimiter  string
	Pay        bool
)

// Cmd represents the claim command.
var Cmd = &cobra.Command{
	Use:   "claim",
	Short: "Create claims from approved invoices",
	Long: `Create one claim per approved invoice. Either every invoice is claimed or none is.
With --pay a pending payment to the provider is created for each claim, and with
--export the claims are written as a bulk-claim CSV.`,
	RunE: claimFunc,
}

func init() {
	Cmd.Flags().StringSliceVar(&InvoiceIDs, "invoice", nil, "Invoice id to claim (repeatable)")
	Cmd.Flags().StringVarP(&CreatedBy, "by", "b", "", "User creating the claims")
	Cmd.Flags().StringVar(&ExportFile, "export", "", "Write the claims to this CSV file")
	Cmd.Flags().StringVar(&Delimiter, "delimiter", ",", "CSV delimiter for --export")
	Cmd.Flags().BoolVar(&Pay, "pay", false, "Create a pending provider payment for each claim")
	_ = Cmd.MarkFlagRequired("invoice")
	_ = Cmd.MarkFlagRequired("by")
}

// Result is the output of the claim command.
type Result struct {
	Claims    []models.Claim   `json:"claims"`
	Payments  []models.Payment `json:"payments,omitempty"`
	Processed int              `json:"processed"`
}

func claimFunc(cmd *cobra.Command, args []string) error {
	ids, err := root.ParseIDs(InvoiceIDs)
	if err != nil {
		return err
	}
	delim := []rune(Delimiter)
	if len(delim) != 1 {
		return fmt.Errorf("delimiter must be a single character, got: %q", Delimiter)
	}

	ctx := cmd.Context()
	app := root.App

	var payees map[uuid.UUID]models.Provider
	if Pay {
		if payees, err = resolvePayees(ctx, app.GetStore(), ids); err != nil {
			return err
		}
	}

	batch, err := app.GetBatcher().CreateClaims(ctx, ids, CreatedBy)
	if err != nil {
		return err
	}
	res := Result{Claims: batch.Claims, Processed: batch.Processed}

	if Pay {
		for _, c := range batch.Claims {
			payment, err := savePayment(ctx, app.GetStore(), c, payees[c.InvoiceID])
			if err != nil {
				return err
			}
			res.Payments = append(res.Payments, payment)
		}
		root.Log.Info("Payments created", logging.F(logging.FieldPaymentCount, len(res.Payments)))
	}

	if ExportFile != "" {
		if err := export.WriteClaimsToFile(ExportFile, batch.Claims, delim[0], root.Log); err != nil {
			return err
		}
	}
	return root.WriteJSON(cmd, res)
}

// resolvePayees checks that every invoice can be paid before any claim is created.
func resolvePayees(ctx context.Context, st store.Repository, ids []uuid.UUID) (map[uuid.UUID]models.Provider, error) {
	payees := make(map[uuid.UUID]models.Provider, len(ids))
	for _, id := range ids {
		inv, err := st.GetInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		if inv.ProviderID == nil {
			return nil, &domainerror.ValidationError{Field: "provider_id", Reason: fmt.Sprintf("invoice %s has no provider to pay", id)}
		}
		if total := claims.ClaimTotal(*inv); total <= 0 {
			return nil, &domainerror.ValidationError{Field: "amount", Reason: fmt.Sprintf("invoice %s has non-positive total %d", id, total)}
		}
		provider, err := st.GetProvider(ctx, *inv.ProviderID)
		if err != nil {
			return nil, err
		}
		if err := claims.CheckPayee(*provider); err != nil {
			return nil, err
		}
		payees[id] = *provider
	}
	return payees, nil
}

func savePayment(ctx context.Context, st store.Repository, c models.Claim, provider models.Provider) (models.Payment, error) {
	payment, err := claims.PaymentForClaim(c, provider, root.App.Now())
	if err != nil {
		return models.Payment{}, err
	}
	if err := st.SavePayment(ctx, payment); err != nil {
		return models.Payment{}, fmt.Errorf("error saving payment for %s: %w", c.Reference, err)
	}
	return payment, nil
}
