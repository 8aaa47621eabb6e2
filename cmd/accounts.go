package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/mcpmail/internal/auth"
	"github.com/teemow/mcpmail/internal/mailbox"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List accounts signed in on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				accounts, err := mailbox.New(s.client, s.logger).ListAccounts(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.jsonOutput() {
					if accounts == nil {
						accounts = []auth.Account{}
					}
					return writeJSON(out, accounts)
				}

				if len(accounts) == 0 {
					fmt.Fprintln(out, "No accounts signed in. Run 'mcpmail login' to add one.")
					return nil
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ACCOUNT ID\tUSERNAME")
				for _, a := range accounts {
					fmt.Fprintf(tw, "%s\t%s\n", a.AccountID, a.Username)
				}
				return tw.Flush()
			})
		},
	}
}
