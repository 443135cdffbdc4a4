package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	actorStore "github.com/ad2m/missions/internal/actor/store"
	"github.com/ad2m/missions/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the staff directory",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a semicolon-separated HR export",
	Long: `Import reads the HR export and creates or updates one directory entry per
matricule. Chiefs are written before the people reporting to them. Rows the
directory refuses are listed and do not stop the import.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open roster: %w", err)
		}
		defer f.Close()

		_, db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		report, err := roster.NewService(actorStore.New(db)).Import(newContext(), f)
		if err != nil {
			return fmt.Errorf("failed to import roster: %w", err)
		}

		printReport(cmd.OutOrStdout(), report)

		if len(report.Failed) > 0 {
			return fmt.Errorf("%d of %d rows were refused", len(report.Failed), len(report.Sheet.Entries))
		}

		return nil
	},
}

func printReport(out io.Writer, report *roster.Report) {
	fmt.Fprintf(out, "Encoding: %s\n", report.Sheet.Charset)
	fmt.Fprintf(out, "Imported: %s\n\n", color.New(color.FgGreen).Sprint(len(report.Imported)))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MATRICULE\tNAME\tROLES\tACTIVE")
	fmt.Fprintln(w, "---------\t----\t-----\t------")

	for _, a := range report.Imported {
		roles := make([]string, len(a.Roles))
		for i, r := range a.Roles {
			roles[i] = string(r)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", a.Matricule, a.Name, strings.Join(roles, ","), a.Active)
	}

	w.Flush()

	if len(report.Failed) == 0 {
		return
	}

	fmt.Fprintf(out, "\n%s\n", color.New(color.FgRed).Sprintf("Refused: %d", len(report.Failed)))

	for _, f := range report.Failed {
		fmt.Fprintf(out, "  %s\n", f.Error())
	}
}

func init() {
	rosterCmd.AddCommand(rosterImportCmd)
}

// RosterCmd returns the roster command
func RosterCmd() *cobra.Command {
	return rosterCmd
}
