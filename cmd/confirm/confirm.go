// Package confirm handles the confirm command, which feeds manual matches back
// into the email association store.
package confirm

import (
	"fjacquet/claimflow/cmd/root"
	"fjacquet/claimflow/internal/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Flags for the confirm command.
var (
	ProviderID string
	Email      string
)

// Cmd represents the confirm command.
var Cmd = &cobra.Command{
	Use:   "confirm",
	Short: "Record that a sender email belongs to a provider",
	Long: `Record a manual provider match for a sender email. The first confirmation creates
an unverified association, the second verifies it.`,
	RunE: confirmFunc,
}

func init() {
	Cmd.Flags().StringVarP(&ProviderID, "provider", "p", "", "Provider id")
	Cmd.Flags().StringVarP(&Email, "email", "e", "", "Sender email address")
	_ = Cmd.MarkFlagRequired("provider")
	_ = Cmd.MarkFlagRequired("email")
}

// Result is the output of the confirm command.
type Result struct {
	Association models.ProviderEmailAssociation `json:"association"`
	Outcome     string                          `json:"outcome"`
}

func confirmFunc(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(ProviderID)
	if err != nil {
		return err
	}
	assoc, outcome, err := root.App.GetMatcher().RecordConfirmation(cmd.Context(), id, Email)
	if err != nil {
		return err
	}
	return root.WriteJSON(cmd, Result{Association: assoc, Outcome: string(outcome)})
}
