package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ad2m/missions/cmd/missionctl/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "missionctl",
		Short: "Administration tool for the missions service",
		Long: `missionctl runs the database schema, loads the staff roster exported by HR,
and issues API tokens for directory members.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.RosterCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
