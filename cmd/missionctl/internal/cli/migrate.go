package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ad2m/missions/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if dryRun {
			fmt.Fprint(cmd.OutOrStdout(), database.SchemaSQL())
			return nil
		}

		_, db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(newContext(), db); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", color.New(color.FgGreen).Sprint("✓"))

		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "Print the schema instead of applying it")
}

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return migrateCmd
}
