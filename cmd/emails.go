package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/mcpmail/internal/auth"
	"github.com/teemow/mcpmail/internal/mailbox"
)

func newEmailsCmd(opts *rootOptions) *cobra.Command {
	var (
		accountID   string
		folder      string
		limit       int
		includeBody bool
		noLogin     bool
		showQR      bool
	)

	cmd := &cobra.Command{
		Use:   "emails",
		Short: "List recent messages",
		Long: `List recent messages in a folder.

Without --account-id the first signed-in account is used. When no account
is signed in yet, a device code sign-in is started first unless --no-login
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			return withSession(cmd.Context(), opts, func(s *session) error {
				ctx := cmd.Context()
				mb := mailbox.New(s.client, s.logger)

				if accountID == "" {
					var login mailbox.LoginFunc
					if !noLogin {
						login = func(ctx context.Context) (*auth.Account, error) {
							return s.login(ctx, cmd.InOrStdin(), opts.promptWriter(cmd), showQR)
						}
					}
					account, err := mb.EnsureAccount(ctx, login)
					if err != nil {
						return err
					}
					accountID = account.AccountID
				}

				emails, err := mb.ListEmails(ctx, mailbox.ListEmailsOptions{
					AccountID:   accountID,
					Folder:      folder,
					Limit:       limit,
					IncludeBody: includeBody,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if opts.jsonOutput() {
					if emails == nil {
						emails = []mailbox.Email{}
					}
					return writeJSON(out, emails)
				}
				return printEmails(out, emails, includeBody)
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account-id", "", "Account to read (default: first signed-in account)")
	cmd.Flags().StringVar(&folder, "folder", mailbox.DefaultFolder, "Folder to list")
	cmd.Flags().IntVar(&limit, "limit", mailbox.DefaultLimit, "Maximum number of messages")
	cmd.Flags().BoolVar(&includeBody, "include-body", false, "Include message bodies")
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "Fail instead of signing in when no account exists")
	cmd.Flags().BoolVar(&showQR, "qr", false, "Render the verification URL as a QR code if a sign-in is needed")

	return cmd
}

func printEmails(out io.Writer, emails []mailbox.Email, includeBody bool) error {
	if len(emails) == 0 {
		_, err := fmt.Fprintln(out, "No messages.")
		return err
	}

	if !includeBody {
		tw := newTable(out)
		fmt.Fprintln(tw, "RECEIVED\tFROM\tFLAGS\tSUBJECT")
		for _, e := range emails {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", received(e), e.From.EmailAddress.Address, flags(e), firstLine(e.Subject, 70))
		}
		return tw.Flush()
	}

	for i, e := range emails {
		if i > 0 {
			fmt.Fprintln(out, strings.Repeat("-", 60))
		}
		fmt.Fprintf(out, "Subject:  %s\n", e.Subject)
		fmt.Fprintf(out, "From:     %s\n", e.From.EmailAddress.Address)
		fmt.Fprintf(out, "Received: %s\n", received(e))
		fmt.Fprintf(out, "Read:     %t\n", e.IsRead)
		if e.HasAttachments {
			fmt.Fprintln(out, "Attachments: yes")
		}
		if e.Body != nil && e.Body.Content != "" {
			fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(e.Body.Content))
		}
	}
	return nil
}

func received(e mailbox.Email) string {
	if t, ok := e.Received(); ok {
		return t.Local().Format("2006-01-02 15:04")
	}
	return e.ReceivedDateTime
}

// flags renders read state and attachments as "N" (unread) and "A".
func flags(e mailbox.Email) string {
	var b strings.Builder
	if !e.IsRead {
		b.WriteByte('N')
	}
	if e.HasAttachments {
		b.WriteByte('A')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
