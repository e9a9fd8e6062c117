package dom

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ardnew/bindable/bind"
)

// Tree implements [bind.Tree] over *html.Node. The zero value is ready to
// use.
type Tree struct{}

var _ bind.Tree = Tree{}

func node(n bind.Node) *html.Node {
	h, _ := n.(*html.Node)

	return h
}

// Kind classifies text, element, and document nodes. A document is a
// fragment: it has children but no attributes of its own.
func (Tree) Kind(n bind.Node) bind.Kind {
	h := node(n)
	if h == nil {
		return bind.KindOther
	}

	switch h.Type {
	case html.TextNode:
		return bind.KindText
	case html.ElementNode:
		return bind.KindElement
	case html.DocumentNode:
		return bind.KindFragment
	default:
		return bind.KindOther
	}
}

func (Tree) Children(n bind.Node) []bind.Node {
	h := node(n)
	if h == nil {
		return nil
	}

	var out []bind.Node
	for c := range h.ChildNodes() {
		out = append(out, c)
	}

	return out
}

// Text returns the data of a text node or the concatenated text of the
// descendants of any other node.
func (Tree) Text(n bind.Node) string {
	h := node(n)
	if h == nil {
		return ""
	}

	return textContent(h)
}

func textContent(h *html.Node) string {
	if h.Type == html.TextNode {
		return h.Data
	}

	var b strings.Builder
	for d := range h.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}

	return b.String()
}

func (Tree) SetText(n bind.Node, text string) {
	if h := node(n); h != nil && h.Type == html.TextNode {
		h.Data = text
	}
}

func (Tree) Attrs(n bind.Node) []bind.Attr {
	h := node(n)
	if h == nil || h.Type != html.ElementNode {
		return nil
	}

	out := make([]bind.Attr, len(h.Attr))
	for i, a := range h.Attr {
		out[i] = bind.Attr{Owner: n, Name: a.Key, Value: a.Val}
	}

	return out
}

func (Tree) SetAttr(n bind.Node, name, value string) {
	h := node(n)
	if h == nil || h.Type != html.ElementNode {
		return
	}

	for i := range h.Attr {
		if h.Attr[i].Namespace == "" && h.Attr[i].Key == name {
			h.Attr[i].Val = value

			return
		}
	}

	h.Attr = append(h.Attr, html.Attribute{Key: name, Val: value})
}

func (Tree) RemoveAttr(n bind.Node, name string) {
	h := node(n)
	if h == nil {
		return
	}

	for i := range h.Attr {
		if h.Attr[i].Namespace == "" && h.Attr[i].Key == name {
			h.Attr = append(h.Attr[:i], h.Attr[i+1:]...)

			return
		}
	}
}

func (Tree) NewText(text string) bind.Node {
	return &html.Node{Type: html.TextNode, Data: text}
}

// Adopt accepts *html.Node values, which are deep-copied so a node already
// in a document is never moved, and [HTML], which is parsed as a body
// fragment.
func (Tree) Adopt(v any) ([]bind.Node, bool) {
	switch v := v.(type) {
	case *html.Node:
		if v == nil {
			return nil, false
		}

		if v.Type == html.DocumentNode {
			var out []bind.Node
			for c := range v.ChildNodes() {
				out = append(out, clone(c))
			}

			return out, true
		}

		return []bind.Node{clone(v)}, true
	case HTML:
		nodes, err := v.Nodes()
		if err != nil {
			return []bind.Node{&html.Node{Type: html.TextNode, Data: string(v)}}, true
		}

		out := make([]bind.Node, len(nodes))
		for i, n := range nodes {
			out[i] = n
		}

		return out, true
	default:
		return nil, false
	}
}

// Replace inserts with before old, then detaches old. Nodes in with are
// detached from wherever they were first. It does nothing when old has no
// parent.
func (Tree) Replace(old bind.Node, with ...bind.Node) {
	o := node(old)
	if o == nil || o.Parent == nil {
		return
	}

	parent := o.Parent

	for _, w := range with {
		n := node(w)
		if n == nil || n == o {
			continue
		}

		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}

		parent.InsertBefore(n, o)
	}

	if !containsNode(with, o) {
		parent.RemoveChild(o)
	}
}

func containsNode(nodes []bind.Node, h *html.Node) bool {
	for _, n := range nodes {
		if node(n) == h {
			return true
		}
	}

	return false
}

func (Tree) Remove(n bind.Node) {
	if h := node(n); h != nil && h.Parent != nil {
		h.Parent.RemoveChild(h)
	}
}

func (Tree) Contains(ancestor, n bind.Node) bool {
	a, h := node(ancestor), node(n)
	if a == nil || h == nil {
		return false
	}

	for ; h != nil; h = h.Parent {
		if h == a {
			return true
		}
	}

	return false
}

// clone returns a deep copy of n without parent or siblings.
func clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}

	for child := range n.ChildNodes() {
		c.AppendChild(clone(child))
	}

	return c
}
