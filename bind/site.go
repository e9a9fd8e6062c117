package bind

import (
	"strings"

	"github.com/ardnew/bindable/lang"
)

type siteID uint64

// site is one reactive binding. The set of implementations is closed: every
// switch over sites handles *textSite, *attrNameSite, and *attrValueSite.
type site interface {
	affected(c lang.Change) bool
	deps() lang.Change
	kind() string
}

// textSite renders an expression as the nodes between its span's bounds.
// span is never empty: an empty result still leaves one empty text node.
type textSite struct {
	expr *lang.Expression
	span []Node
}

// attrNameSite computes both the name and the value of an attribute. name
// is the attribute it last wrote, or "" after rendering an empty name.
type attrNameSite struct {
	owner Node
	name  string
	key   part
	value part
}

// attrValueSite computes the value of a fixed attribute.
type attrValueSite struct {
	owner Node
	name  string
	value part
}

// part is one side of an attribute: an expression, or literal text when
// expr is nil. A mixed template evaluates to its segments, which concat
// joins into one string.
type part struct {
	expr   *lang.Expression
	text   string
	concat bool
}

func newPart(t lang.Template, raw string) part {
	if e := t.Expression(); e != nil {
		return part{expr: e, concat: len(t) > 1}
	}

	if t != nil {
		return part{text: literal(t)}
	}

	return part{text: raw}
}

func (p part) changes() lang.Change {
	if p.expr == nil {
		return lang.Change{}
	}

	return lang.Change{Values: p.expr.Values(), Functions: p.expr.Functions()}
}

func (s *textSite) affected(c lang.Change) bool { return s.expr.Affected(c) }

func (s *attrNameSite) affected(c lang.Change) bool {
	return (s.key.expr != nil && s.key.expr.Affected(c)) ||
		(s.value.expr != nil && s.value.expr.Affected(c))
}

func (s *attrValueSite) affected(c lang.Change) bool { return s.value.expr.Affected(c) }

func (s *textSite) deps() lang.Change {
	return lang.Change{Values: s.expr.Values(), Functions: s.expr.Functions()}
}

func (s *attrNameSite) deps() lang.Change { return s.key.changes().Merge(s.value.changes()) }

func (s *attrValueSite) deps() lang.Change { return s.value.changes() }

func (*textSite) kind() string      { return "text" }
func (*attrNameSite) kind() string  { return "attr-name" }
func (*attrValueSite) kind() string { return "attr-value" }

// literal concatenates the text of a template without expressions.
func literal(t lang.Template) string {
	var b strings.Builder

	for _, s := range t {
		b.WriteString(s.Text)
	}

	return b.String()
}

// contains reports whether target covers s. The caller holds b.mu.
func (b *Binder) contains(target Node, k Kind, s site) bool {
	switch k {
	case KindElement, KindFragment:
		switch s := s.(type) {
		case *textSite:
			return b.tree.Contains(target, s.span[0])
		case *attrNameSite:
			return b.tree.Contains(target, s.owner)
		case *attrValueSite:
			return b.tree.Contains(target, s.owner)
		}
	case KindText:
		if s, ok := s.(*textSite); ok {
			for _, n := range s.span {
				if n == target {
					return true
				}
			}
		}
	case KindAttr:
		a, _ := target.(Attr)

		switch s := s.(type) {
		case *attrNameSite:
			return s.owner == a.Owner && s.name == a.Name
		case *attrValueSite:
			return s.owner == a.Owner && s.name == a.Name
		case *textSite:
			return false
		}
	case KindOther:
	}

	return false
}
