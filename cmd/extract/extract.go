// Package extract handles the extract command.
package extract

import (
	"fmt"

	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/intake"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"
	"fjacquet/claimflow/internal/ocrinput"

	"github.com/spf13/cobra"
)

// Flags for the extract command.
var (
	Format  string
	Sender  string
	Save    bool
	Approve bool
)

// Cmd represents the extract command.
var Cmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract invoice fields from OCR output",
	Long: `Extract invoice number, date, totals, ABN, NDIS number and support line items
from OCR lines (JSON or CSV). With --save the invoice is matched against the
directory and stored for review.`,
	RunE: extractFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Format, "format", "f", "", "OCR input format: json or csv (default: from file extension)")
	Cmd.Flags().StringVarP(&Sender, "sender", "s", "", "Sender email address of the invoice")
	Cmd.Flags().BoolVar(&Save, "save", false, "Match and store the invoice")
	Cmd.Flags().BoolVar(&Approve, "approve", false, "Store the invoice as approved instead of pending review")
}

// Result is the output of the extract command.
type Result struct {
	Extracted models.ExtractedInvoiceData `json:"extracted"`
	Match     *models.MatchResult         `json:"match,omitempty"`
	Invoice   *models.Invoice             `json:"invoice,omitempty"`
}

func extractFunc(cmd *cobra.Command, args []string) error {
	in, name, err := root.OpenInput(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close input")
		}
	}()

	format := ocrinput.Format(Format)
	if format == "" {
		format = ocrinput.FormatFromPath(name)
	}
	lines, err := ocrinput.Read(in, format)
	if err != nil {
		return fmt.Errorf("error reading OCR input: %w", err)
	}

	app := root.App
	res := Result{Extracted: app.GetExtractor().Extract(lines)}
	if Save {
		ctx := cmd.Context()
		match := app.GetMatcher().Match(ctx, res.Extracted, Sender)
		status := models.InvoiceStatusPendingReview
		if Approve {
			status = models.InvoiceStatusApproved
		}
		inv := intake.BuildInvoice(res.Extracted, match, Sender, status, root.App.Now())
		if err := app.GetStore().SaveInvoice(ctx, inv); err != nil {
			return fmt.Errorf("error saving invoice: %w", err)
		}
		root.Log.Info("Invoice stored",
			logging.F(logging.FieldInvoiceID, inv.ID.String()),
			logging.F(logging.FieldStatus, string(inv.Status)),
			logging.F(logging.FieldMethod, string(match.Method)))
		res.Match, res.Invoice = &match, &inv
	}
	return root.WriteJSON(cmd, res)
}
