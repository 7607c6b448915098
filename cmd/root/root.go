// Package root contains the root command and the shared command plumbing.
package root

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"fjacquet/claimflow/internal/config"
	"fjacquet/claimflow/internal/container"
	"fjacquet/claimflow/internal/fileutils"
	"fjacquet/claimflow/internal/logging"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// CommonFlags are the persistent flags shared by every command.
type CommonFlags struct {
	ConfigFile string
	LogLevel   string
	Input      string
	Output     string
}

var (
	// Log is the shared logger for commands. It is replaced once configuration is loaded.
	Log logging.Logger = logging.NewLogrusAdapter("info", "text")

	// App is the dependency container built before each command runs.
	App *container.Container

	// SharedFlags holds the persistent flag values.
	SharedFlags = CommonFlags{}

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "claimflow",
		Short: "Turn OCR'd support invoices into NDIS claims and ABA payment files.",
		Long: `claimflow extracts invoice fields from OCR output, matches invoices to providers
and participants, batches approved invoices into claims, and encodes payments as
ABA direct entry files.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return Teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Init registers the persistent flags.
func Init() {
	Cmd.PersistentFlags().StringVar(&SharedFlags.ConfigFile, "config", "", "Config file (default: config.yaml in $HOME/.claimflow, .claimflow or .)")
	Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Override the configured log level")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (default: stdout)")
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	cfg, err := config.InitializeConfigFrom(SharedFlags.ConfigFile)
	if err != nil {
		return err
	}
	if SharedFlags.LogLevel != "" {
		cfg.Log.Level = SharedFlags.LogLevel
	}
	Log = logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()})

	App, err = container.NewContainer(cmd.Context(), cfg, container.WithLogger(Log))
	return err
}

// Teardown closes the container, persisting the memory store.
func Teardown() error {
	if App == nil {
		return nil
	}
	err := App.Close()
	App = nil
	return err
}

// OpenInput opens the --input file, or stdin when it is empty or "-".
func OpenInput(cmd *cobra.Command) (io.ReadCloser, string, error) {
	if SharedFlags.Input == "" || SharedFlags.Input == "-" {
		return io.NopCloser(cmd.InOrStdin()), "", nil
	}
	f, err := os.Open(SharedFlags.Input)
	if err != nil {
		return nil, "", fmt.Errorf("error opening input file: %w", err)
	}
	return f, SharedFlags.Input, nil
}

// WriteOutput writes data to the --output file, or to the command's stdout.
func WriteOutput(cmd *cobra.Command, data []byte) error {
	if SharedFlags.Output == "" || SharedFlags.Output == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := fileutils.WriteFile(SharedFlags.Output, data, 0o600); err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}
	Log.Info("Wrote output", logging.F(logging.FieldOutputFile, SharedFlags.Output))
	return nil
}

// WriteJSON writes v as indented JSON through WriteOutput.
func WriteJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding output: %w", err)
	}
	return WriteOutput(cmd, append(data, '\n'))
}

// ParseIDs parses UUID flag values.
func ParseIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
