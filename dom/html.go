package dom

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML is trusted markup. A text site rendering an HTML value inserts the
// parsed nodes instead of escaped text.
type HTML string

// Nodes parses h as the content of a body element.
func (h HTML) Nodes() ([]*html.Node, error) {
	return ParseFragment(string(h))
}

func (h HTML) String() string { return string(h) }

var body = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Parse reads a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, ErrParse.Wrap(err)
	}

	return doc, nil
}

// ParseFragment parses s as the content of a body element. The returned
// nodes have no parent.
func ParseFragment(s string) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	if err != nil {
		return nil, ErrParse.Wrap(err).With(slog.Int("length", len(s)))
	}

	return nodes, nil
}

// Fragment parses s into a document node holding the nodes of s, a root
// that can be bound and rendered like a whole document.
func Fragment(s string) (*html.Node, error) {
	nodes, err := ParseFragment(s)
	if err != nil {
		return nil, err
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	return root, nil
}

// Load parses a template: a complete document when s starts with a doctype
// or an html element, and a [Fragment] otherwise.
func Load(s string) (*html.Node, error) {
	head := strings.ToLower(strings.TrimLeftFunc(s, unicode.IsSpace))
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") {
		return Parse(strings.NewReader(s))
	}

	return Fragment(s)
}

// Render writes n as HTML.
func Render(w io.Writer, n *html.Node) error {
	if err := html.Render(w, n); err != nil {
		return ErrRender.Wrap(err)
	}

	return nil
}

// String renders n, or the children of n when it is a document node
// without a doctype, which is how [Fragment] roots print.
func String(n *html.Node) string {
	var buf bytes.Buffer

	if n.Type == html.DocumentNode && !hasDoctype(n) {
		for c := range n.ChildNodes() {
			_ = html.Render(&buf, c)
		}

		return buf.String()
	}

	_ = html.Render(&buf, n)

	return buf.String()
}

func hasDoctype(n *html.Node) bool {
	for c := range n.ChildNodes() {
		if c.Type == html.DoctypeNode {
			return true
		}
	}

	return false
}
