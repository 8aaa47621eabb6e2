package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/mcpmail/internal/mcp"
)

func newCallCmd(opts *rootOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "call <tool> [json-args]",
		Short: "Invoke a tool with JSON arguments",
		Long: `Invoke any tool the server offers.

The optional second argument is a JSON object with the tool's arguments:

  mcpmail call list_emails '{"account_id":"abc123","limit":10}'

By default the text content of the result is printed. Use --raw to print
the result exactly as the server returned it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]any
			if len(args) == 2 {
				var err error
				if toolArgs, err = parseToolArgs(args[1]); err != nil {
					return err
				}
			}

			return withSession(cmd.Context(), opts, func(s *session) error {
				out := cmd.OutOrStdout()

				if raw || opts.jsonOutput() {
					result, err := s.client.CallTool(cmd.Context(), args[0], toolArgs)
					if err != nil {
						return err
					}
					var buf bytes.Buffer
					if err := json.Indent(&buf, result, "", "  "); err != nil {
						buf.Reset()
						buf.Write(result)
					}
					_, err = fmt.Fprintln(out, buf.String())
					return err
				}

				result, err := s.client.CallToolResult(cmd.Context(), args[0], toolArgs)
				if err != nil {
					return err
				}
				if err := result.Err(); err != nil {
					return err
				}
				return printContent(out, result)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw result JSON")
	return cmd
}

// parseToolArgs decodes the arguments object. UseNumber keeps large integers
// intact on the way to the server.
func parseToolArgs(s string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("tool arguments must be a JSON object: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("tool arguments must be a single JSON object")
	}
	return args, nil
}

func printContent(out io.Writer, result *mcp.ToolResult) error {
	for _, block := range result.Content {
		if block.Type != "text" {
			if _, err := fmt.Fprintf(out, "[%s content]\n", block.Type); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(out, block.Text); err != nil {
			return err
		}
	}
	return nil
}
