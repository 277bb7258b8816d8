// Package extract walks parsed HTML to recover text, media and authorship
// from pages that were never meant to be machine-read. Every routine is
// best-effort: a missing element yields an empty result, never an error.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Action tells Walk how to proceed after visiting a node.
type Action int

const (
	// Continue descends into the node's children.
	Continue Action = iota
	// SkipChildren moves on to the next sibling without descending.
	SkipChildren
	// Stop ends the walk.
	Stop
)

// VisitFunc is called once per node in document order.
type VisitFunc func(n *html.Node) Action

// Walk visits n and its descendants depth-first in document order. It
// reports whether the walk was stopped early.
func Walk(n *html.Node, fn VisitFunc) bool {
	if n == nil {
		return false
	}
	switch fn(n) {
	case Stop:
		return true
	case SkipChildren:
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Walk(c, fn) {
			return true
		}
	}
	return false
}

// Document is a parsed page with selector lookups.
type Document struct {
	doc *goquery.Document
}

// Parse reads an HTML document. The HTML5 parser recovers from almost any
// malformed input, so errors here mean the reader itself failed.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// First returns the first node matching sel, or nil.
func (d *Document) First(sel cascadia.Selector) *html.Node {
	if d == nil || d.doc == nil {
		return nil
	}
	s := d.doc.FindMatcher(sel)
	if s.Length() == 0 {
		return nil
	}
	return s.Nodes[0]
}

// All returns every node matching sel in document order.
func (d *Document) All(sel cascadia.Selector) []*html.Node {
	if d == nil || d.doc == nil {
		return nil
	}
	return d.doc.FindMatcher(sel).Nodes
}

// Attr returns the value of the attribute key on an element node.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// HasClass reports whether n lists class in its class attribute, compared
// ASCII case-insensitively.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// Text concatenates every descendant text node in document order.
func Text(n *html.Node) string {
	var b strings.Builder
	Walk(n, func(c *html.Node) Action {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return Continue
	})
	return b.String()
}

// FirstText returns the first descendant text node's content.
func FirstText(n *html.Node) (string, bool) {
	var text string
	found := Walk(n, func(c *html.Node) Action {
		if c.Type == html.TextNode {
			text = c.Data
			return Stop
		}
		return Continue
	})
	return text, found
}

func isElement(n *html.Node, name string) bool {
	return n != nil && n.Type == html.ElementNode && strings.EqualFold(n.Data, name)
}
