package lang

import (
	"context"
	"log/slog"
	"strings"
)

// Template delimiters. A backslash immediately before Start makes it
// literal text.
const (
	Start  = "{{"
	End    = "}}"
	Escape = `\`
)

// Segment is one piece of a template: literal text, or an expression when
// Expr is set.
type Segment struct {
	Text string
	Expr *Expression
}

// IsExpression reports whether s is an expression segment.
func (s Segment) IsExpression() bool { return s.Expr != nil }

// Template is the ordered list of segments of a split text. Adjacent
// literals are always merged and empty literals dropped.
type Template []Segment

// Split separates text into literal and expression segments.
//
// It returns nil when text contains no start delimiter, so callers can skip
// binding plain text. An escaped delimiter becomes literal "{{". An
// expression that fails to parse, or that has no closing delimiter, is kept
// verbatim as literal text and reported as a warning through the logger set
// with [WithLogger]; splitting continues after it.
func Split(ctx context.Context, text string, opts ...Option) Template {
	if !strings.Contains(text, Start) {
		return nil
	}

	o := makeOptions(opts...)
	t := Template{}

	var lit strings.Builder

	for rest := text; ; {
		i := strings.Index(rest, Start)
		if i < 0 {
			lit.WriteString(rest)

			break
		}

		if strings.HasSuffix(rest[:i], Escape) {
			lit.WriteString(rest[:i-len(Escape)])
			lit.WriteString(Start)

			rest = rest[i+len(Start):]

			continue
		}

		lit.WriteString(rest[:i])

		body := rest[i+len(Start):]

		j := strings.Index(body, End)
		if j < 0 {
			o.logger.WarnContext(ctx, "invalid expression",
				slog.Any("error", ErrUnterminated.With(slog.String("text", rest[i:]))),
			)
			lit.WriteString(rest[i:])

			break
		}

		raw := rest[i : i+len(Start)+j+len(End)]
		rest = body[j+len(End):]

		e, err := parseCached(ctx, body[:j], o.logger)
		if err != nil {
			o.logger.WarnContext(ctx, "invalid expression",
				slog.String("text", raw),
				slog.Any("error", err),
			)
			lit.WriteString(raw)

			continue
		}

		t = t.text(lit.String())
		t = append(t, Segment{Expr: e})

		lit.Reset()
	}

	return t.text(lit.String())
}

// text appends a literal, merging it with a trailing literal.
func (t Template) text(s string) Template {
	if s == "" {
		return t
	}

	if n := len(t); n > 0 && !t[n-1].IsExpression() {
		t[n-1].Text += s

		return t
	}

	return append(t, Segment{Text: s})
}

// HasExpressions reports whether any segment is an expression.
func (t Template) HasExpressions() bool {
	for _, s := range t {
		if s.IsExpression() {
			return true
		}
	}

	return false
}

// Expressions returns the expression segments in order.
func (t Template) Expressions() []*Expression {
	var out []*Expression

	for _, s := range t {
		if s.IsExpression() {
			out = append(out, s.Expr)
		}
	}

	return out
}

// Expression returns t as a single expression, the form used for attribute
// names and values. A lone expression is returned as is. A mix of literals
// and expressions becomes a call to [PassThrough] with every segment as an
// argument. It returns nil when t has no expressions.
func (t Template) Expression() *Expression {
	if !t.HasExpressions() {
		return nil
	}

	if len(t) == 1 {
		return t[0].Expr
	}

	args := make([]any, len(t))

	for i, s := range t {
		if s.IsExpression() {
			args[i] = s.Expr
		} else {
			args[i] = s.Text
		}
	}

	return NewExpression(Step{Scope: ScopeStore, Name: PassThrough, Call: true, Args: args})
}

// String renders t as template text. The text splits back to an equal
// template unless a literal ending in [Escape] is followed by an expression:
// there is no escape for the escape character, so Split reads that
// expression as a literal delimiter.
func (t Template) String() string {
	var b strings.Builder

	for _, s := range t {
		if s.IsExpression() {
			b.WriteString(Start)
			b.WriteString(s.Expr.String())
			b.WriteString(End)

			continue
		}

		b.WriteString(strings.ReplaceAll(s.Text, Start, Escape+Start))
	}

	return b.String()
}
