// Package match handles the match command.
package match

import (
	"encoding/json"
	"fmt"

	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/models"

	"github.com/spf13/cobra"
)

// Sender is the invoice sender email address.
var Sender string

// Cmd represents the match command.
var Cmd = &cobra.Command{
	Use:   "match",
	Short: "Match extracted invoice data to a provider and participant",
	Long: `Resolve the provider and participant of an extracted invoice (JSON, as printed
by extract) using ABN, NDIS number, sender email, sender domain and sender history.`,
	RunE: matchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&Sender, "sender", "s", "", "Sender email address of the invoice")
}

func matchFunc(cmd *cobra.Command, args []string) error {
	in, _, err := root.OpenInput(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); err != nil {
			root.Log.WithError(err).Warn("Failed to close input")
		}
	}()

	data, err := decodeExtracted(json.NewDecoder(in))
	if err != nil {
		return err
	}
	res := root.App.GetMatcher().Match(cmd.Context(), data, Sender)
	return root.WriteJSON(cmd, res)
}

// decodeExtracted accepts either bare extracted data or the extract command's
// {"extracted": ...} envelope.
func decodeExtracted(dec *json.Decoder) (models.ExtractedInvoiceData, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return models.ExtractedInvoiceData{}, fmt.Errorf("error decoding extracted data: %w", err)
	}
	var envelope struct {
		Extracted *models.ExtractedInvoiceData `json:"extracted"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Extracted != nil {
		return *envelope.Extracted, nil
	}
	var data models.ExtractedInvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("error decoding extracted data: %w", err)
	}
	return data, nil
}
