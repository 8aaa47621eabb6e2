package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/teemow/mcpmail/internal/auth"
)

// errSignInPending is returned when the user confirmed before the server saw
// the sign-in. The flow is spent; the user has to run login again.
var errSignInPending = errors.New("sign-in not completed yet, run the command again to get a new code")

// errNoConfirmation is returned when stdin closes before the user confirms.
var errNoConfirmation = errors.New("input closed before sign-in was confirmed")

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var showQR bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign an account in with the device code flow",
		Long: `Start a device code sign-in on the server.

mcpmail prints a verification URL and a code. Open the URL in a browser,
enter the code, then press Enter here to finish. If the server has not seen
the sign-in yet the attempt ends and login must be run again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(s *session) error {
				account, err := s.login(cmd.Context(), cmd.InOrStdin(), opts.promptWriter(cmd), showQR)
				if err != nil {
					return err
				}
				if opts.jsonOutput() {
					return writeJSON(cmd.OutOrStdout(), account)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showQR, "qr", false, "Also render the verification URL as a QR code")
	return cmd
}

// login runs one device code flow, prompting on out and waiting for a line
// on in.
func (s *session) login(ctx context.Context, in io.Reader, out io.Writer, showQR bool) (*auth.Account, error) {
	flow := auth.NewFlow(s.client,
		auth.WithLogger(s.logger),
		auth.WithMetrics(s.provider.Metrics()),
		auth.WithAuditLogger(s.audit),
	)

	outcome, err := flow.Run(ctx, promptForCompletion(in, out, showQR))
	if err != nil {
		return nil, fmt.Errorf("sign-in: %w", err)
	}

	switch {
	case outcome.Authenticated():
		fmt.Fprintf(out, "Signed in as %s (account %s)\n", outcome.Account.Username, outcome.Account.AccountID)
		return outcome.Account, nil
	case outcome.Pending():
		return nil, errSignInPending
	default:
		if outcome.Message != "" {
			return nil, fmt.Errorf("sign-in failed: %s", outcome.Message)
		}
		return nil, fmt.Errorf("sign-in failed with status %q", outcome.Status)
	}
}

// promptForCompletion shows the challenge and returns once the user presses
// Enter, or when ctx is cancelled.
func promptForCompletion(in io.Reader, out io.Writer, showQR bool) auth.WaitFunc {
	return func(ctx context.Context, c *auth.Challenge) error {
		fmt.Fprintf(out, "To sign in, open %s and enter the code %s\n", c.VerificationURL, c.DeviceCode)
		if exp := c.ExpiresAt(); !exp.IsZero() {
			fmt.Fprintf(out, "The code expires at %s.\n", exp.Format(time.Kitchen))
		}
		if showQR {
			if err := writeQR(out, c.VerificationURL); err != nil {
				return err
			}
		}
		fmt.Fprint(out, "Press Enter once you have signed in...")

		done := make(chan error, 1)
		go func() {
			_, err := bufio.NewReader(in).ReadString('\n')
			if errors.Is(err, io.EOF) {
				err = errNoConfirmation
			}
			done <- err
		}()

		select {
		case err := <-done:
			fmt.Fprintln(out)
			return err
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		}
	}
}

func writeQR(out io.Writer, content string) error {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("render QR code: %w", err)
	}
	_, err = fmt.Fprint(out, code.ToSmallString(false))
	return err
}
