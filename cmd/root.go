package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI and sent as clientInfo.
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree. Each call returns an independent tree
// with its own option state.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "mcpmail",
		Short: "Reads a mailbox through an MCP mail server",
		Long: `mcpmail talks to a Model Context Protocol server over streamable HTTP.

It lists the server's tools, signs accounts in with the device code flow
and reads messages through the server's mail tools.

Settings come from flags, then environment variables, then the optional
config file (./mcpmail.yaml or ~/.config/mcpmail/config.yaml).`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "mcpmail version %s\n" .Version}}`)

	opts.addFlags(rootCmd)

	rootCmd.AddCommand(newToolsCmd(opts))
	rootCmd.AddCommand(newAccountsCmd(opts))
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newEmailsCmd(opts))
	rootCmd.AddCommand(newCallCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
