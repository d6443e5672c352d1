// Package page models a captured snapshot of the chat page's DOM and the
// selector queries run against it.
package page

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document is one parsed snapshot of the host page.
type Document struct {
	root *html.Node
}

// Element is a node of a Document. Two Elements are the same element when
// their Node pointers are equal.
type Element struct {
	node *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Empty returns a document with an empty body, used before the first
// snapshot arrives.
func Empty() *Document {
	doc, err := ParseString("<html><head></head><body></body></html>")
	if err != nil {
		// html.Parse does not fail on in-memory input.
		panic(err)
	}
	return doc
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}

// QueryFirst returns the first element matched by the earliest selector in
// selectors that matches anything. Selector order is priority order.
func (d *Document) QueryFirst(selectors []string) (Element, bool) {
	if d == nil || d.root == nil {
		return Element{}, false
	}
	for _, sel := range selectors {
		compiled, ok := compile(sel)
		if !ok {
			continue
		}
		if n := compiled.MatchFirst(d.root); n != nil {
			return Element{node: n}, true
		}
	}
	return Element{}, false
}

// QueryAll returns every element matched by any of selectors, in document
// order and without duplicates.
func (d *Document) QueryAll(selectors []string) []Element {
	if d == nil || d.root == nil {
		return nil
	}

	var matchers []cascadia.Selector
	for _, sel := range selectors {
		if compiled, ok := compile(sel); ok {
			matchers = append(matchers, compiled)
		}
	}
	if len(matchers) == 0 {
		return nil
	}

	var result []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, m := range matchers {
				if m.Match(n) {
					result = append(result, Element{node: n})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)

	return result
}

// Find resolves a single selector, as used for event targets.
func (d *Document) Find(selector string) (Element, bool) {
	return d.QueryFirst([]string{selector})
}

// Contains reports whether el belongs to this document.
func (d *Document) Contains(el Element) bool {
	if d == nil || el.node == nil {
		return false
	}
	n := el.node
	for n.Parent != nil {
		n = n.Parent
	}
	return n == d.root
}

// Node returns the underlying node; it doubles as the element's identity.
func (e Element) Node() *html.Node {
	return e.node
}

// IsZero reports whether e refers to no element.
func (e Element) IsZero() bool {
	return e.node == nil
}

// Tag returns the lower-case tag name.
func (e Element) Tag() string {
	if e.node == nil {
		return ""
	}
	return e.node.Data
}

// Attr returns the value of the named attribute.
func (e Element) Attr(key string) (string, bool) {
	if e.node == nil {
		return "", false
	}
	for _, a := range e.node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Parent returns the closest element ancestor.
func (e Element) Parent() (Element, bool) {
	if e.node == nil {
		return Element{}, false
	}
	for p := e.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return Element{node: p}, true
		}
	}
	return Element{}, false
}

// ValidateSelectors returns an error naming the first selector that does
// not compile.
func ValidateSelectors(selectors []string) error {
	for _, sel := range selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("invalid selector %q: %w", sel, err)
		}
	}
	return nil
}

var selectorCache sync.Map // string -> cascadia.Selector

// compile returns the compiled form of sel. Compiled selectors are cached;
// query results never are.
func compile(sel string) (cascadia.Selector, bool) {
	if cached, ok := selectorCache.Load(sel); ok {
		s, valid := cached.(cascadia.Selector)
		return s, valid
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		selectorCache.Store(sel, false)
		return nil, false
	}
	selectorCache.Store(sel, compiled)
	return compiled, true
}
