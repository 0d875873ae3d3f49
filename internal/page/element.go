package page

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Element is a handle to one node of a Document. Handles stay valid for
// the lifetime of the document since enhancers never detach placeholders.
type Element struct {
	doc  *Document
	node *html.Node
}

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of the named attribute, or "".
func (e *Element) Attr(key string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return attr(e.node, key)
}

// Data reads a data-* attribute. Key is given without the "data-" prefix.
func (e *Element) Data(key string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, a := range e.node.Attr {
		if a.Key == "data-"+key {
			return a.Val, true
		}
	}
	return "", false
}

// Classes returns the element's class list in attribute order.
func (e *Element) Classes() []string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return strings.Fields(attr(e.node, "class"))
}

// HasClass reports whether class is present.
func (e *Element) HasClass(class string) bool {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return hasToken(attr(e.node, "class"), class)
}

// AddClass appends class unless it is already present.
func (e *Element) AddClass(class string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	list := strings.Fields(attr(e.node, "class"))
	for _, c := range list {
		if c == class {
			return
		}
	}
	setAttr(e.node, "class", strings.Join(append(list, class), " "))
}

// RemoveClass drops every occurrence of the given classes.
func (e *Element) RemoveClass(classes ...string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	drop := make(map[string]bool, len(classes))
	for _, c := range classes {
		drop[c] = true
	}
	var kept []string
	for _, c := range strings.Fields(attr(e.node, "class")) {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		removeAttr(e.node, "class")
		return
	}
	setAttr(e.node, "class", strings.Join(kept, " "))
}

// Style returns the inline value of a CSS property.
func (e *Element) Style(prop string) string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	for _, d := range parseStyle(attr(e.node, "style")) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyle sets one inline CSS property, keeping the others in place.
func (e *Element) SetStyle(prop, value string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	decls := parseStyle(attr(e.node, "style"))
	replaced := false
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{prop: prop, value: value})
	}
	setAttr(e.node, "style", formatStyle(decls))
}

// RemoveStyle deletes an inline CSS property.
func (e *Element) RemoveStyle(prop string) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	var kept []declaration
	for _, d := range parseStyle(attr(e.node, "style")) {
		if d.prop != prop {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		removeAttr(e.node, "style")
		return
	}
	setAttr(e.node, "style", formatStyle(kept))
}

// Text returns the concatenated text content of the element.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		return false
	})
	return b.String()
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(text string) {
	e.ReplaceChildren(&html.Node{Type: html.TextNode, Data: text})
}

// ReplaceChildren drops the current children and appends nodes in order.
// Nodes must not be attached to another tree.
func (e *Element) ReplaceChildren(nodes ...*html.Node) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		e.node.AppendChild(n)
	}
}

// AppendChild adds a detached node after the element's last child.
func (e *Element) AppendChild(n *html.Node) {
	e.doc.mu.Lock()
	defer e.doc.mu.Unlock()
	e.node.AppendChild(n)
}

// SetInnerHTML parses fragment in the context of this element and swaps it
// in as the element's content.
func (e *Element) SetInnerHTML(fragment string) error {
	ctx := &html.Node{Type: html.ElementNode, Data: e.node.Data, DataAtom: e.node.DataAtom}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return fmt.Errorf("parsing fragment: %w", err)
	}
	e.ReplaceChildren(nodes...)
	return nil
}

// InnerHTML renders the element's children.
func (e *Element) InnerHTML() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	var b strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}

type declaration struct {
	prop  string
	value string
}

// parseStyle splits an inline style attribute into declarations. Values are
// split on the first colon so url() values carrying a scheme survive.
func parseStyle(s string) []declaration {
	var out []declaration
	for _, part := range splitDeclarations(s) {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

// splitDeclarations splits on semicolons outside parentheses and quotes,
// so values like url(data:image/png;base64,...) stay whole.
func splitDeclarations(s string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '\\':
			i++
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}
