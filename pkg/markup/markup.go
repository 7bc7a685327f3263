// Package markup exposes a parsed HTML document as a small queryable tree so
// extraction code never depends on a concrete HTML library.
package markup

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is one element (or the document root) of a parsed page.
type Node interface {
	// Find returns the descendants matching a CSS selector, in document order.
	Find(selector string) []Node
	// Text returns the combined text of the node and its descendants.
	Text() string
	// Children returns the direct element children, in document order.
	Children() []Node
}

// Parse reads an HTML document and returns its root node.
func Parse(r io.Reader) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return selection{doc.Selection}, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(body []byte) (Node, error) {
	return Parse(bytes.NewReader(body))
}

// FromSelection wraps an existing goquery selection, e.g. colly's HTMLElement.DOM.
func FromSelection(s *goquery.Selection) Node {
	return selection{s}
}

// JoinText concatenates the text of every node, matching what a text query
// over a multi-element match returns.
func JoinText(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text())
	}
	return b.String()
}

type selection struct {
	s *goquery.Selection
}

func (n selection) Find(selector string) []Node {
	return wrap(n.s.Find(selector))
}

func (n selection) Text() string {
	return n.s.Text()
}

func (n selection) Children() []Node {
	return wrap(n.s.Children())
}

func wrap(s *goquery.Selection) []Node {
	if s.Length() == 0 {
		return nil
	}
	out := make([]Node, 0, s.Length())
	s.Each(func(_ int, el *goquery.Selection) {
		out = append(out, selection{el})
	})
	return out
}
