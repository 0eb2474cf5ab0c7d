// Package classify decides what kind of workshop page a document is.
package classify

import (
	"github.com/PentesterFlow/workshopgraph/internal/dom"
	"github.com/PentesterFlow/workshopgraph/internal/extract"
	"github.com/PentesterFlow/workshopgraph/internal/scope"
)

// PageType is the category of a workshop page.
type PageType string

const (
	Mod     PageType = "Mod"
	Map     PageType = "Map"
	Modpack PageType = "Modpack"
	Unknown PageType = "Unknown"
)

// DefaultCollectionSelector matches the children container of a collection.
const DefaultCollectionSelector = ".collectionChildren"

// Classification is the outcome of classifying one page. Fields is nil for
// Unknown and Modpack pages; those are never scanned for labeled values.
type Classification struct {
	Type   PageType
	Fields *extract.Fields
}

// Classifier classifies workshop pages.
type Classifier struct {
	collectionSelector string
}

// New creates a classifier. An empty selector uses DefaultCollectionSelector.
func New(collectionSelector string) *Classifier {
	if collectionSelector == "" {
		collectionSelector = DefaultCollectionSelector
	}
	return &Classifier{collectionSelector: collectionSelector}
}

// Classify decides the page type of doc fetched from rawURL. Collection
// detection runs before field extraction.
func (c *Classifier) Classify(doc dom.Document, rawURL string) Classification {
	if scope.IsBrowseURL(rawURL) {
		return Classification{Type: Unknown}
	}

	if doc.Exists(c.collectionSelector) {
		return Classification{Type: Modpack}
	}

	fields := extract.ExtractFields(doc)
	if fields.Has(extract.MapFolder) {
		return Classification{Type: Map, Fields: fields}
	}
	return Classification{Type: Mod, Fields: fields}
}
