package page

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed host page. All reads and mutations go through the
// document lock so enhancers running on separate goroutines can share it
// with the HTTP handlers that render snapshots.
type Document struct {
	mu   sync.RWMutex
	root *html.Node
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	return &Document{root: root}, nil
}

// Load reads and parses the HTML file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// ParseString is a convenience wrapper around Parse.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the current state of the document to w.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// ByClass returns every element carrying class, in document order.
func (d *Document) ByClass(class string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*Element
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasToken(attr(n, "class"), class) {
			out = append(out, &Element{doc: d, node: n})
		}
		return false
	})
	return out
}

// First returns the first element carrying class, or nil.
func (d *Document) First(class string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasToken(attr(n, "class"), class) {
			found = n
			return true
		}
		return false
	})
	if found == nil {
		return nil
	}
	return &Element{doc: d, node: found}
}

// ByID returns the element whose id attribute equals id, or nil.
func (d *Document) ByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && attr(n, "id") == id {
			found = n
			return true
		}
		return false
	})
	if found == nil {
		return nil
	}
	return &Element{doc: d, node: found}
}

// Body returns the body element, or nil for fragments without one.
func (d *Document) Body() *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			found = n
			return true
		}
		return false
	})
	if found == nil {
		return nil
	}
	return &Element{doc: d, node: found}
}

// walk visits n and its descendants depth-first until visit returns true.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if visit(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if walk(c, visit) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if f == token {
			return true
		}
	}
	return false
}
