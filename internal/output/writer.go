package output

import (
	"fmt"
	"io"
	"strings"
)

const rule = "----------------------------------------"

// WriteFramed writes a report between horizontal rules, the way the CLI
// presents server responses.
func WriteFramed(w io.Writer, title, report string) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n%s\n%s\n", title, rule, strings.TrimSpace(report), rule)
	return err
}
