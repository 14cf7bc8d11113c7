package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// OutputFormatter handles formatted output to the console
type OutputFormatter struct {
	out    io.Writer
	errOut io.Writer
}

// NewOutputFormatter creates an OutputFormatter writing to the command's
// output and error streams
func NewOutputFormatter(cmd *cobra.Command) *OutputFormatter {
	return NewOutputFormatterWithWriters(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// NewOutputFormatterWithWriters creates an OutputFormatter with custom writers
func NewOutputFormatterWithWriters(out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		out:    out,
		errOut: errOut,
	}
}

// Success prints a success message with a checkmark prefix
func (o *OutputFormatter) Success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.out, "[OK] %s\n", msg)
}

// Info prints an informational message
func (o *OutputFormatter) Info(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.out, "%s\n", msg)
}

// Warn prints a warning message with a warning prefix
func (o *OutputFormatter) Warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.errOut, "[WARN] %s\n", msg)
}

// Error prints an error message with an error prefix
func (o *OutputFormatter) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(o.errOut, "[ERROR] %s\n", msg)
}

// Source prints rewritten or rendered text as is, adding a final newline
// only when the text lacks one
func (o *OutputFormatter) Source(text string) {
	fmt.Fprint(o.out, text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(o.out)
	}
}

// JSON outputs data as formatted JSON
func (o *OutputFormatter) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Table prints data in a tabular format
// headers is a slice of column headers
// rows is a slice of row data, where each row is a slice of strings
func (o *OutputFormatter) Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)

	// Print headers
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
		// Print separator
		separators := make([]string, len(headers))
		for i, h := range headers {
			separators[i] = strings.Repeat("-", len(h))
		}
		fmt.Fprintln(w, strings.Join(separators, "\t"))
	}

	// Print rows
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	w.Flush()
}
