// Package output assembles and renders workshop reports.
package output

import (
	"fmt"
	"strings"
)

// Report line prefixes.
const (
	PageTypePrefix        = "Page Type: "
	ModpackContentsPrefix = "Modpack Contents: "
	URLPrefix             = "URL: "
)

// PageLines builds a page's own lines: type, field lines, then URL.
func PageLines(pageType string, fieldLines []string, url string) []string {
	lines := make([]string, 0, len(fieldLines)+2)
	lines = append(lines, PageTypePrefix+pageType)
	lines = append(lines, fieldLines...)
	lines = append(lines, URLPrefix+url)
	return lines
}

// ModpackLines builds a collection's own lines. ids must already be sorted.
func ModpackLines(ids []string, url string) []string {
	return []string{
		PageTypePrefix + "Modpack",
		ModpackContentsPrefix + strings.Join(ids, ", "),
		URLPrefix + url,
	}
}

// FailureLine describes a nested page that could not be fetched.
func FailureLine(url, description string) string {
	return fmt.Sprintf("Failed to fetch %s: %s", url, description)
}

// Flatten appends every sub-result to own, in the given order. Empty
// sub-results contribute nothing; nothing is reordered or deduplicated.
func Flatten(own []string, subs [][]string) []string {
	total := len(own)
	for _, sub := range subs {
		total += len(sub)
	}

	lines := make([]string, 0, total)
	lines = append(lines, own...)
	for _, sub := range subs {
		lines = append(lines, sub...)
	}
	return lines
}

// Render joins report lines with newlines.
func Render(lines []string) string {
	return strings.Join(lines, "\n")
}
