package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sourcebrief/internal/status"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the store and generation backend",
	Long: `Status probes the configured brief store and sends a short test prompt
through the candidate models, reporting which one answered.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&outJSON, "json", false, "print the report as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.checker.Check(cmd.Context())
	if outJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	writeStatus(cmd.OutOrStdout(), report)
	return nil
}

func writeStatus(w io.Writer, r status.Report) {
	fmt.Fprintf(w, "backend     %-11s  %s\n", r.Backend.Status, r.Backend.Timestamp)
	fmt.Fprintf(w, "database    %-11s  %s\n", r.Database.Status, r.Database.Message)
	fmt.Fprintf(w, "generation  %-11s  %s\n", r.Generation.Status, r.Generation.Message)
}
