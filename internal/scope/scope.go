// Package scope decides which workshop URLs may be analyzed.
package scope

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PentesterFlow/workshopgraph/internal/errors"
)

// Checker validates top-level URLs against scope rules.
type Checker struct {
	blocked []string
}

// NewChecker creates a new scope checker. Empty rules fall back to the
// default blocked prefixes.
func NewChecker(rules Rules) *Checker {
	blocked := rules.BlockedPrefixes
	if len(blocked) == 0 {
		blocked = DefaultBlockedPrefixes
	}
	return &Checker{blocked: blocked}
}

// Validate returns an InvalidURL error when rawURL starts with a blocked prefix.
func (c *Checker) Validate(rawURL string) error {
	for _, prefix := range c.blocked {
		if strings.HasPrefix(rawURL, prefix) {
			return errors.NewInvalidURLError(rawURL)
		}
	}
	return nil
}

var appWorkshopPath = regexp.MustCompile(`^/app/\d+/workshop`)

// IsBrowseURL reports whether rawURL denotes a workshop browse or listing
// page rather than an individual item.
func IsBrowseURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	return strings.Contains(path, "/workshop/browse") || appWorkshopPath.MatchString(path)
}
