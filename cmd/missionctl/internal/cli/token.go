package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ad2m/missions/internal/actor"
	actorStore "github.com/ad2m/missions/internal/actor/store"
	"github.com/ad2m/missions/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token [matricule]",
	Short: "Issue an API token for a directory member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		a, err := actorStore.New(db).GetByMatricule(newContext(), args[0])
		if err != nil {
			if errors.Is(err, actor.ErrNotFound) {
				return fmt.Errorf("no directory member with matricule %s", args[0])
			}

			return err
		}

		if !a.Active {
			return fmt.Errorf("%s is deactivated", a.Matricule)
		}

		raw, err := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).Issue(a.ID)
		if err != nil {
			return err
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		if quiet {
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Token for %s (%s), valid %s\n",
			color.New(color.Bold).Sprint(a.Name), a.Matricule, cfg.Auth.TokenTTL)
		fmt.Fprintln(cmd.OutOrStdout(), raw)

		return nil
	},
}

func init() {
	tokenCmd.Flags().BoolP("quiet", "q", false, "Print the token only")
}

// TokenCmd returns the token command
func TokenCmd() *cobra.Command {
	return tokenCmd
}
