package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				tools, err := s.client.ListTools(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.jsonOutput() {
					return writeJSON(out, tools)
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "NAME\tDESCRIPTION")
				for _, tool := range tools {
					fmt.Fprintf(tw, "%s\t%s\n", tool.Name, firstLine(tool.Description, 80))
				}
				return tw.Flush()
			})
		},
	}
}
