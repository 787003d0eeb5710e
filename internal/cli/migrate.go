package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sourcebrief/internal/store/postgres"
)

var migrateSteps int

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply or roll back the postgres schema",
	Long:      `Migrate runs the embedded schema migrations against store.postgres_url.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 0, "number of migrations to apply (0 = all)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Store.PostgresURL == "" {
		return errors.New("store.postgres_url is not set (SOURCEBRIEF_STORE_POSTGRES_URL)")
	}

	if err := postgres.Migrate(cfg.Store.PostgresURL, args[0], migrateSteps); err != nil {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Migrations applied (%s)\n", args[0])
	return nil
}
