package cmd

import (
	"encoding/json"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Output formats for command results.
const (
	outputText = "text"
	outputJSON = "json"
)

func (o *rootOptions) jsonOutput() bool {
	return o.output == outputJSON
}

// promptWriter is where interactive messages go. With JSON output they move
// to stderr so stdout stays parseable.
func (o *rootOptions) promptWriter(cmd *cobra.Command) io.Writer {
	if o.jsonOutput() {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// firstLine returns the first line of s, shortened to max runes.
func firstLine(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if r := []rune(s); len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
