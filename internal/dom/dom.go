// Package dom defines the small DOM capability surface the workshop
// extractors are written against, with a goquery-backed implementation.
package dom

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Node is a single DOM node.
type Node interface {
	// Tag returns the lower-case element name, or "" for non-elements.
	Tag() string
	IsText() bool
	IsElement() bool
	// Text returns the node's text content, including descendants.
	Text() string
	// NextSibling returns the following sibling, or nil at the end.
	NextSibling() Node
	Attr(name string) (string, bool)
	// Find returns the descendants matching selector in document order.
	Find(selector string) []Node
}

// Document is a parsed page supporting selector queries.
type Document interface {
	Exists(selector string) bool
	// Find returns every node matching selector in document order.
	Find(selector string) []Node
	// FindWithin returns, in document order, the nodes matching selector under
	// every node matching container.
	FindWithin(container, selector string) []Node
}

// Parser turns raw markup into a Document.
type Parser interface {
	Parse(raw []byte) (Document, error)
}

// HTMLParser parses HTML with goquery.
type HTMLParser struct{}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse parses an HTML document.
func (p *HTMLParser) Parse(raw []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &document{doc: doc}, nil
}

// ParseString is a convenience wrapper around HTMLParser.Parse.
func ParseString(s string) (Document, error) {
	return NewHTMLParser().Parse([]byte(s))
}

type document struct {
	doc *goquery.Document
}

func (d *document) Exists(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

func (d *document) Find(selector string) []Node {
	return wrapSelection(d.doc.Find(selector))
}

func (d *document) FindWithin(container, selector string) []Node {
	return wrapSelection(d.doc.Find(container).Find(selector))
}

func wrapSelection(sel *goquery.Selection) []Node {
	nodes := make([]Node, 0, sel.Length())
	for _, n := range sel.Nodes {
		nodes = append(nodes, &node{n: n})
	}
	return nodes
}

type node struct {
	n *html.Node
}

func (n *node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.n.Data)
}

func (n *node) IsText() bool {
	return n.n.Type == html.TextNode
}

func (n *node) IsElement() bool {
	return n.n.Type == html.ElementNode
}

func (n *node) Text() string {
	switch n.n.Type {
	case html.TextNode:
		return n.n.Data
	case html.ElementNode, html.DocumentNode:
		var b strings.Builder
		collectText(n.n, &b)
		return b.String()
	default:
		return ""
	}
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func (n *node) NextSibling() Node {
	if n.n.NextSibling == nil {
		return nil
	}
	return &node{n: n.n.NextSibling}
}

func (n *node) Attr(name string) (string, bool) {
	for _, attr := range n.n.Attr {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

func (n *node) Find(selector string) []Node {
	return wrapSelection(goquery.NewDocumentFromNode(n.n).Find(selector))
}
