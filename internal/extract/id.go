// Package extract pulls item identifiers and labeled metadata out of
// workshop pages.
package extract

import (
	"net/url"
	"regexp"
)

// idPattern matches the id query parameter only, never suffixes like appid=.
var idPattern = regexp.MustCompile(`(?:^|[?&;])id=(\d+)`)

// ItemID returns the leading digits of the first "id" query parameter in
// rawURL.
func ItemID(rawURL string) (string, bool) {
	m := idPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AbsoluteURL resolves href against base. Hrefs that cannot be parsed are
// returned unchanged.
func AbsoluteURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(ref).String()
}
