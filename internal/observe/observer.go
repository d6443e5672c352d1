// Package observe detects changes between successive page snapshots.
package observe

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"

	"github.com/j-veylop/token-overlay-tui/internal/page"
)

// Change is a bit set of the kinds of change seen in a snapshot.
type Change uint8

const (
	// ChangeStructure means nodes were added or removed anywhere in the
	// document.
	ChangeStructure Change = 1 << iota
	// ChangeMain means the main region changed, including its text.
	ChangeMain
)

// None reports whether no change was seen.
func (c Change) None() bool {
	return c == 0
}

// Has reports whether c includes kind.
func (c Change) Has(kind Change) bool {
	return c&kind != 0
}

// String returns the string representation of the change set.
func (c Change) String() string {
	switch c {
	case 0:
		return "none"
	case ChangeStructure:
		return "structure"
	case ChangeMain:
		return "main"
	case ChangeStructure | ChangeMain:
		return "structure+main"
	default:
		return "unknown"
	}
}

// Observer compares fingerprints of successive snapshots. The structural
// fingerprint covers the node tree of the whole document without text
// content; the scoped fingerprint covers the main region with its text.
type Observer struct {
	mainSelectors []string
	structural    uint64
	scoped        uint64
	seen          bool
}

// New creates an Observer scoped to the first element matching
// mainSelectors.
func New(mainSelectors []string) *Observer {
	return &Observer{mainSelectors: mainSelectors}
}

// Observe records doc and returns what changed since the previous call.
// The first snapshot always reports a structural change.
func (o *Observer) Observe(doc *page.Document) Change {
	structural := Fingerprint(doc.Root(), false)

	var scoped uint64
	if main, ok := doc.QueryFirst(o.mainSelectors); ok {
		scoped = Fingerprint(main.Node(), true)
	}

	var change Change
	if !o.seen || structural != o.structural {
		change |= ChangeStructure
	}
	if o.seen && scoped != o.scoped {
		change |= ChangeMain
	}

	o.seen = true
	o.structural = structural
	o.scoped = scoped
	return change
}

// Reset forgets the previous snapshot.
func (o *Observer) Reset() {
	o.seen = false
	o.structural = 0
	o.scoped = 0
}

// Fingerprint hashes the subtree rooted at n. Node kinds and element names
// always contribute; text and comment data only when withText is set.
// Attributes never do. A nil node hashes to zero.
func Fingerprint(n *html.Node, withText bool) uint64 {
	if n == nil {
		return 0
	}
	d := xxhash.New()
	writeNode(d, n, withText)
	return d.Sum64()
}

func writeNode(d *xxhash.Digest, n *html.Node, withText bool) {
	_, _ = d.WriteString(strconv.Itoa(int(n.Type)))
	switch n.Type {
	case html.ElementNode:
		_, _ = d.WriteString("<" + n.Data + ">")
	case html.TextNode, html.CommentNode:
		if withText {
			_, _ = d.WriteString(strconv.Itoa(len(n.Data)) + ":" + n.Data)
		}
	}

	_, _ = d.WriteString("(")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(d, c, withText)
	}
	_, _ = d.WriteString(")")
}
