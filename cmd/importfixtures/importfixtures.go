// Package importfixtures handles the import command, which loads a fixtures file
// into the configured store.
package importfixtures

import (
	"fmt"

	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the import command.
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import providers, participants and invoices from a fixtures file",
	Long: `Upsert every entity of a YAML fixtures file (--input) into the configured store.
Claim and payment file sequences are advanced past imported records.`,
	RunE: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) error {
	if root.SharedFlags.Input == "" {
		return fmt.Errorf("--input is required")
	}
	fx, err := root.App.ImportFixtures(cmd.Context(), root.SharedFlags.Input)
	if err != nil {
		return err
	}
	root.Log.Info("Fixtures imported",
		logging.F(logging.FieldInputFile, root.SharedFlags.Input),
		logging.F("providers", len(fx.Providers)),
		logging.F("participants", len(fx.Participants)),
		logging.F("invoices", len(fx.Invoices)))
	return nil
}
