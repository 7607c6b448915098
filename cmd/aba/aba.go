// Package aba handles the aba command group: generating, submitting and clearing
// payment files.
package aba

import (
	"fmt"

	"fjacquet/claimflow/cmd/root"
	abaenc "fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/logging"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Flags for the aba subcommands.
var (
	PaymentIDs    []string
	AllPending    bool
	OutputDir     string
	BatchID       string
	BankReference string
)

// Cmd represents the aba command group.
var Cmd = &cobra.Command{
	Use:   "aba",
	Short: "Generate and track ABA payment files",
}

// GenerateCmd writes a payment file for pending payments.
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an ABA file from pending payments",
	Long: `Generate an ABA direct entry file from the given pending payments (or every
pending payment with --all-pending). The file is written to the output directory
and its payments move to included_in_file.`,
	RunE: generateFunc,
}

// SubmitCmd records the bank's acceptance of a payment file.
var SubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Mark a payment file as submitted to the bank",
	RunE:  submitFunc,
}

// ClearCmd records settled payments.
var ClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Mark payments as cleared, marking their claims and invoices paid",
	RunE:  clearFunc,
}

func init() {
	GenerateCmd.Flags().StringSliceVar(&PaymentIDs, "payment", nil, "Payment id to include (repeatable)")
	GenerateCmd.Flags().BoolVar(&AllPending, "all-pending", false, "Include every pending payment")
	GenerateCmd.Flags().StringVarP(&OutputDir, "dir", "d", "", "Directory for the file (default: aba.output_directory)")

	SubmitCmd.Flags().StringVar(&BatchID, "batch", "", "Payment file id")
	SubmitCmd.Flags().StringVar(&BankReference, "reference", "", "Bank submission reference")
	_ = SubmitCmd.MarkFlagRequired("batch")
	_ = SubmitCmd.MarkFlagRequired("reference")

	ClearCmd.Flags().StringSliceVar(&PaymentIDs, "payment", nil, "Payment id that cleared (repeatable)")
	_ = ClearCmd.MarkFlagRequired("payment")

	Cmd.AddCommand(GenerateCmd, SubmitCmd, ClearCmd)
}

func generateFunc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app := root.App

	ids, err := root.ParseIDs(PaymentIDs)
	if err != nil {
		return err
	}
	if AllPending {
		pending, err := app.GetStore().ListPaymentsByStatus(ctx, models.PaymentStatusPending)
		if err != nil {
			return err
		}
		for _, p := range pending {
			ids = append(ids, p.ID)
		}
	}

	dir := OutputDir
	if dir == "" {
		dir = app.GetConfig().ABA.OutputDirectory
	}
	file, err := app.GetEncoder().GenerateFileTo(ctx, ids, abaenc.DirSink{Dir: dir})
	if err != nil {
		return err
	}
	root.Log.Info("Payment file written", logging.F(logging.FieldOutputFile, file.Path))
	return root.WriteJSON(cmd, file.Batch)
}

func submitFunc(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(BatchID)
	if err != nil {
		return fmt.Errorf("invalid batch id %q: %w", BatchID, err)
	}
	batch, err := root.App.GetEncoder().MarkSubmitted(cmd.Context(), id, BankReference)
	if err != nil {
		return err
	}
	return root.WriteJSON(cmd, batch)
}

func clearFunc(cmd *cobra.Command, args []string) error {
	ids, err := root.ParseIDs(PaymentIDs)
	if err != nil {
		return err
	}
	if err := root.App.GetEncoder().MarkCleared(cmd.Context(), ids); err != nil {
		return err
	}
	root.Log.Info("Payments cleared", logging.F(logging.FieldPaymentCount, len(ids)))
	return nil
}
