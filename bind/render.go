package bind

import (
	"context"
	"regexp"
	"strings"

	"github.com/ardnew/bindable/lang"
)

var nonWord = regexp.MustCompile(`\W+`)

// attrName turns an evaluated name into a valid attribute name: runs of
// non-word characters become "-", and leading "-" are dropped.
func attrName(s string) string {
	return strings.TrimLeft(nonWord.ReplaceAllString(s, "-"), "-")
}

// result is the outcome of evaluating a site, computed without holding the
// binder's lock.
type result struct {
	value any    // text sites
	name  string // attribute-name sites
	text  string // attribute sites
}

func (b *Binder) evaluate(ctx context.Context, s site) result {
	switch s := s.(type) {
	case *textSite:
		return result{value: s.expr.Evaluate(ctx, b.store, b.opts.lang()...)}
	case *attrNameSite:
		return result{
			name: attrName(b.partString(ctx, s.key)),
			text: b.partString(ctx, s.value),
		}
	case *attrValueSite:
		return result{text: b.partString(ctx, s.value)}
	default:
		panic("bind: unknown site type")
	}
}

func (b *Binder) partString(ctx context.Context, p part) string {
	if p.expr == nil {
		return p.text
	}

	v := p.expr.Evaluate(ctx, b.store, b.opts.lang()...)

	if items, ok := v.([]any); ok && p.concat {
		var sb strings.Builder
		for _, item := range items {
			sb.WriteString(b.stringify(item))
		}

		return sb.String()
	}

	return b.stringify(v)
}

// write applies r to the tree. The caller holds b.mu.
func (b *Binder) write(s site, r result) {
	switch s := s.(type) {
	case *textSite:
		nodes := b.nodes(r.value)
		if len(nodes) == 0 {
			nodes = []Node{b.tree.NewText("")}
		}

		for _, n := range s.span[1:] {
			b.tree.Remove(n)
		}

		b.tree.Replace(s.span[0], nodes...)
		s.span = nodes
	case *attrNameSite:
		if r.name != s.name && s.name != "" {
			b.tree.RemoveAttr(s.owner, s.name)
		}

		s.name = r.name
		if s.name != "" {
			b.tree.SetAttr(s.owner, s.name, r.text)
		}
	case *attrValueSite:
		b.tree.SetAttr(s.owner, s.name, r.text)
	default:
		panic("bind: unknown site type")
	}
}

// nodes converts a value into the nodes a text site inserts.
func (b *Binder) nodes(v any) []Node {
	if ns, ok := b.tree.Adopt(v); ok {
		return ns
	}

	switch v := v.(type) {
	case string:
		return []Node{b.tree.NewText(v)}
	case []any:
		var out []Node
		for _, item := range v {
			out = append(out, b.nodes(item)...)
		}

		return out
	default:
		return []Node{b.tree.NewText(lang.Stringify(v))}
	}
}

// stringify is [lang.Stringify] extended with the text content of nodes the
// tree adopts. The caller must not hold b.mu.
func (b *Binder) stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ns, ok := b.tree.Adopt(v)
	if !ok {
		return lang.Stringify(v)
	}

	var sb strings.Builder
	for _, n := range ns {
		sb.WriteString(b.tree.Text(n))
	}

	return sb.String()
}
