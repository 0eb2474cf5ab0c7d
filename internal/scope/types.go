package scope

// Rules defines which top-level URLs may be analyzed.
type Rules struct {
	// BlockedPrefixes are rejected before any fetch.
	BlockedPrefixes []string `json:"blocked_prefixes" yaml:"blocked_prefixes"`
}

// DefaultBlockedPrefixes are the Project Zomboid workshop browse listings.
var DefaultBlockedPrefixes = []string{
	"https://steamcommunity.com/app/108600/workshop/",
	"https://steamcommunity.com/workshop/browse/?appid=108600",
}

// DefaultRules returns the default scope rules.
func DefaultRules() Rules {
	prefixes := make([]string, len(DefaultBlockedPrefixes))
	copy(prefixes, DefaultBlockedPrefixes)
	return Rules{BlockedPrefixes: prefixes}
}
