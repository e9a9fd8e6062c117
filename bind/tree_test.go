package bind_test

import (
	"slices"
	"strings"

	"github.com/ardnew/bindable/bind"
)

// memNode is a minimal document node for exercising bind without HTML.
type memNode struct {
	kind     bind.Kind
	name     string
	text     string
	attrs    [][2]string
	parent   *memNode
	children []*memNode
}

func elem(name string, attrs [][2]string, children ...*memNode) *memNode {
	n := &memNode{kind: bind.KindElement, name: name, attrs: attrs}
	for _, c := range children {
		c.parent = n
	}

	n.children = children

	return n
}

func text(s string) *memNode { return &memNode{kind: bind.KindText, text: s} }

// String renders n in a compact HTML-like form.
func (n *memNode) String() string {
	var b strings.Builder

	switch n.kind {
	case bind.KindText:
		b.WriteString(n.text)
	case bind.KindElement:
		b.WriteString("<" + n.name)

		for _, a := range n.attrs {
			b.WriteString(" " + a[0] + "=" + a[1])
		}

		b.WriteString(">")

		for _, c := range n.children {
			b.WriteString(c.String())
		}

		b.WriteString("</" + n.name + ">")
	case bind.KindFragment, bind.KindAttr, bind.KindOther:
		for _, c := range n.children {
			b.WriteString(c.String())
		}
	}

	return b.String()
}

// memTree implements bind.Tree over memNode. Replacing a node with a text
// node whose text equals panicText panics.
type memTree struct {
	panicText string
}

func mem(n bind.Node) *memNode {
	m, _ := n.(*memNode)

	return m
}

func (memTree) Kind(n bind.Node) bind.Kind {
	if m := mem(n); m != nil {
		return m.kind
	}

	return bind.KindOther
}

func (memTree) Children(n bind.Node) []bind.Node {
	var out []bind.Node
	for _, c := range mem(n).children {
		out = append(out, c)
	}

	return out
}

func (memTree) Text(n bind.Node) string {
	m := mem(n)
	if m.kind == bind.KindText {
		return m.text
	}

	var b strings.Builder
	for _, c := range m.children {
		b.WriteString(memTree{}.Text(c))
	}

	return b.String()
}

func (memTree) SetText(n bind.Node, s string) { mem(n).text = s }

func (memTree) Attrs(n bind.Node) []bind.Attr {
	var out []bind.Attr
	for _, a := range mem(n).attrs {
		out = append(out, bind.Attr{Owner: n, Name: a[0], Value: a[1]})
	}

	return out
}

func (memTree) SetAttr(n bind.Node, name, value string) {
	m := mem(n)
	for i := range m.attrs {
		if m.attrs[i][0] == name {
			m.attrs[i][1] = value

			return
		}
	}

	m.attrs = append(m.attrs, [2]string{name, value})
}

func (memTree) RemoveAttr(n bind.Node, name string) {
	m := mem(n)
	m.attrs = slices.DeleteFunc(m.attrs, func(a [2]string) bool { return a[0] == name })
}

func (memTree) NewText(s string) bind.Node { return text(s) }

func (memTree) Adopt(v any) ([]bind.Node, bool) {
	if m, ok := v.(*memNode); ok {
		return []bind.Node{m}, true
	}

	return nil, false
}

func (t memTree) Replace(old bind.Node, with ...bind.Node) {
	o := mem(old)
	p := o.parent

	i := slices.Index(p.children, o)
	if i < 0 {
		return
	}

	repl := make([]*memNode, len(with))
	for j, w := range with {
		m := mem(w)
		if t.panicText != "" && m.kind == bind.KindText && m.text == t.panicText {
			panic("refusing " + m.text)
		}

		m.parent = p
		repl[j] = m
	}

	p.children = slices.Replace(p.children, i, i+1, repl...)
	o.parent = nil
}

func (memTree) Remove(n bind.Node) {
	m := mem(n)
	if m.parent == nil {
		return
	}

	m.parent.children = slices.DeleteFunc(m.parent.children, func(c *memNode) bool { return c == m })
	m.parent = nil
}

func (memTree) Contains(ancestor, n bind.Node) bool {
	a := mem(ancestor)
	for m := mem(n); m != nil; m = m.parent {
		if m == a {
			return true
		}
	}

	return false
}
