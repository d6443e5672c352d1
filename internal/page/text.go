package page

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// skippedTags never contribute rendered text.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// blockTags start and end on their own line. The value is the number of
// line breaks placed around the block.
var blockTags = map[string]int{
	"address": 1, "article": 1, "aside": 1, "blockquote": 1, "dd": 1,
	"div": 1, "dl": 1, "dt": 1, "fieldset": 1, "figcaption": 1,
	"figure": 1, "footer": 1, "form": 1, "h1": 1, "h2": 1, "h3": 1,
	"h4": 1, "h5": 1, "h6": 1, "header": 1, "hr": 1, "li": 1,
	"main": 1, "nav": 1, "ol": 1, "pre": 1, "section": 1, "table": 1,
	"tr": 1, "ul": 1,
	"p": 2,
}

// InnerText approximates the rendered text of the element the way a browser
// computes innerText: hidden content is skipped, whitespace collapses outside
// preformatted blocks, and block elements and <br> produce line breaks.
func (e Element) InnerText() string {
	if e.node == nil {
		return ""
	}
	w := &textWriter{}
	w.walk(e.node, false)
	return w.String()
}

// Value returns the current value of a form control: the value attribute
// when the exporter recorded one, otherwise the raw text content of a
// textarea. Other elements fall back to InnerText.
func (e Element) Value() string {
	if e.node == nil {
		return ""
	}
	if v, ok := e.Attr("value"); ok {
		return v
	}
	if e.Tag() == "textarea" {
		var b strings.Builder
		for c := e.node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		return b.String()
	}
	return e.InnerText()
}

type textWriter struct {
	b            strings.Builder
	pendingLines int
	pendingSpace bool
}

func (w *textWriter) String() string {
	return w.b.String()
}

func (w *textWriter) atLineStart() bool {
	s := w.b.String()
	return len(s) == 0 || s[len(s)-1] == '\n'
}

// flush emits deferred separators. Nothing is emitted before the first
// piece of text, so leading breaks and spaces disappear.
func (w *textWriter) flush() {
	if w.b.Len() == 0 {
		w.pendingLines = 0
		w.pendingSpace = false
		return
	}
	if w.pendingLines > 0 {
		// Count the newlines already written so blocks do not stack.
		s := w.b.String()
		trailing := len(s) - len(strings.TrimRight(s, "\n"))
		for i := trailing; i < w.pendingLines; i++ {
			w.b.WriteByte('\n')
		}
	} else if w.pendingSpace && !w.atLineStart() {
		w.b.WriteByte(' ')
	}
	w.pendingLines = 0
	w.pendingSpace = false
}

func (w *textWriter) breakLines(n int) {
	if n > w.pendingLines {
		w.pendingLines = n
	}
}

func (w *textWriter) walk(n *html.Node, pre bool) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data, pre)
		return
	case html.ElementNode:
		if skippedTags[n.Data] || hasAttr(n, "hidden") {
			return
		}
		if n.Data == "br" {
			w.flush()
			w.b.WriteByte('\n')
			return
		}
	}

	lines := 0
	if n.Type == html.ElementNode {
		lines = blockTags[n.Data]
		if n.Data == "pre" || n.Data == "textarea" {
			pre = true
		}
	}
	if lines > 0 {
		w.breakLines(lines)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, pre)
	}
	if lines > 0 {
		w.breakLines(lines)
	}
}

func (w *textWriter) text(data string, pre bool) {
	if pre {
		if data == "" {
			return
		}
		w.flush()
		w.b.WriteString(data)
		return
	}

	words := strings.Fields(data)
	if len(words) == 0 {
		if data != "" {
			w.pendingSpace = true
		}
		return
	}
	if startsWithSpace(data) {
		w.pendingSpace = true
	}
	w.flush()
	w.b.WriteString(strings.Join(words, " "))
	if endsWithSpace(data) {
		w.pendingSpace = true
	}
}

func startsWithSpace(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsSpace(r)
}

func endsWithSpace(s string) bool {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	return len(trimmed) < len(s)
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
