package workshop

import (
	"context"

	"github.com/PentesterFlow/workshopgraph/internal/classify"
)

// PageType is the category of a workshop page.
type PageType = classify.PageType

// Page types.
const (
	PageTypeMod     = classify.Mod
	PageTypeMap     = classify.Map
	PageTypeModpack = classify.Modpack
	PageTypeUnknown = classify.Unknown
)

// Page is the raw result of fetching one URL.
type Page struct {
	Body []byte
	// StatusCode is the HTTP status; 0 means the transport reported none
	// and the page is treated as a success.
	StatusCode int
	// Status is the human-readable status line, e.g. "404 Not Found".
	Status string
}

// Transport fetches raw workshop pages. Implementations must be safe for
// concurrent use.
type Transport interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string) (*Page, error)

// Fetch calls f.
func (f TransportFunc) Fetch(ctx context.Context, url string) (*Page, error) {
	return f(ctx, url)
}

// Selectors locate collection children and required items in a page.
type Selectors struct {
	// CollectionContainer holds a collection's children; its presence
	// classifies the page as a modpack.
	CollectionContainer string `json:"collection_container" yaml:"collection_container"`
	// CollectionItem wraps one child inside the container.
	CollectionItem string `json:"collection_item" yaml:"collection_item"`
	// ReferencesContainer holds an item's required items.
	ReferencesContainer string `json:"references_container" yaml:"references_container"`
	// LinkSubstring must appear in an anchor's href for it to count as an
	// item link.
	LinkSubstring string `json:"link_substring" yaml:"link_substring"`
}

// DefaultSelectors returns the selectors for steamcommunity.com pages.
func DefaultSelectors() Selectors {
	return Selectors{
		CollectionContainer: classify.DefaultCollectionSelector,
		CollectionItem:      ".collectionItem",
		ReferencesContainer: "#RequiredItems",
		LinkSubstring:       "filedetails",
	}
}

func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	if s.CollectionContainer == "" {
		s.CollectionContainer = d.CollectionContainer
	}
	if s.CollectionItem == "" {
		s.CollectionItem = d.CollectionItem
	}
	if s.ReferencesContainer == "" {
		s.ReferencesContainer = d.ReferencesContainer
	}
	if s.LinkSubstring == "" {
		s.LinkSubstring = d.LinkSubstring
	}
	return s
}
