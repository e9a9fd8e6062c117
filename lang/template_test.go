package lang

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// seg describes an expected segment: literal text, or an expression in
// canonical form when expr is set.
type seg struct {
	text string
	expr bool
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []seg
		warnings int
	}{
		{
			name:  "expression between literals",
			input: "Hello, {{ name }}!",
			want:  []seg{{"Hello, ", false}, {"name", true}, {"!", false}},
		},
		{
			name:  "adjacent expressions",
			input: "{{a}}{{b}}",
			want:  []seg{{"a", true}, {"b", true}},
		},
		{
			name:  "escaped delimiter",
			input: `\{{x}}`,
			want:  []seg{{"{{x}}", false}},
		},
		{
			name:  "escape followed by expression",
			input: `\{{ {{x}}`,
			want:  []seg{{"{{ ", false}, {"x", true}},
		},
		{
			name:     "invalid expression stays literal",
			input:    "a {{ bad! }} {{ok}}",
			want:     []seg{{"a {{ bad! }} ", false}, {"ok", true}},
			warnings: 1,
		},
		{
			name:     "unterminated",
			input:    "a {{x",
			want:     []seg{{"a {{x", false}},
			warnings: 1,
		},
		{
			name:  "call with braces in string",
			input: "{{ @join(', ', items) }}",
			want:  []seg{{`@join(", ", items)`, true}},
		},
		{
			name:  "closing delimiter alone",
			input: "}} {{x}}",
			want:  []seg{{"}} ", false}, {"x", true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			got := Split(context.Background(), tt.input, WithLogger(traceLogger(&buf)))
			if got == nil {
				t.Fatal("Split returned nil")
			}

			if len(got) != len(tt.want) {
				t.Fatalf("got %d segments %v, want %d", len(got), got, len(tt.want))
			}

			for i, s := range got {
				w := tt.want[i]

				switch {
				case s.IsExpression() != w.expr:
					t.Errorf("segment %d expression = %v, want %v", i, s.IsExpression(), w.expr)
				case w.expr && s.Expr.String() != w.text:
					t.Errorf("segment %d = %q, want %q", i, s.Expr.String(), w.text)
				case !w.expr && s.Text != w.text:
					t.Errorf("segment %d = %q, want %q", i, s.Text, w.text)
				}
			}

			var warnings int

			for _, rec := range decodeLines(t, &buf) {
				if rec["msg"] == "invalid expression" {
					warnings++

					if rec["level"] != "WARN" {
						t.Errorf("warning logged at %v", rec["level"])
					}
				}
			}

			if warnings != tt.warnings {
				t.Errorf("got %d warnings, want %d:\n%s", warnings, tt.warnings, buf.String())
			}
		})
	}
}

func TestSplit_NoDelimiter(t *testing.T) {
	for _, input := range []string{"", "plain text", "}} only", "{ {x} }"} {
		if got := Split(context.Background(), input); got != nil {
			t.Errorf("Split(%q) = %v, want nil", input, got)
		}
	}
}

func TestTemplate_String(t *testing.T) {
	for _, input := range []string{
		"Hello, {{name}}!",
		`\{{literal}} and {{x.y}}`,
		"{{@f(1, [a])}}",
	} {
		tmpl := Split(context.Background(), input)

		again := Split(context.Background(), tmpl.String())
		if again.String() != tmpl.String() {
			t.Errorf("String() of %q does not round-trip: %q then %q",
				input, tmpl.String(), again.String())
		}

		if len(again) != len(tmpl) {
			t.Errorf("%q: got %d segments after round trip, want %d", input, len(again), len(tmpl))
		}
	}
}

func TestTemplate_String_TrailingEscape(t *testing.T) {
	tmpl := Template{{Text: `a\`}, {Expr: mustParse(t, "x")}}

	got := tmpl.String()
	if got != `a\{{x}}` {
		t.Fatalf("String() = %q, want %q", got, `a\{{x}}`)
	}

	again := Split(context.Background(), got)
	if again.HasExpressions() || len(again) != 1 || again[0].Text != "a{{x}}" {
		t.Errorf("Split(%q) = %+v, want the single literal %q", got, again, "a{{x}}")
	}
}

func TestTemplate_Expression(t *testing.T) {
	ctx := context.Background()

	s := NewStore()
	s.SetValues(ctx, map[string]any{"first": "Ada", "last": "Lovelace"})

	t.Run("literal only", func(t *testing.T) {
		if e := Split(ctx, `\{{x}}`).Expression(); e != nil {
			t.Errorf("Expression() = %v, want nil", e)
		}
	})

	t.Run("lone expression", func(t *testing.T) {
		tmpl := Split(ctx, "{{first}}")
		if e := tmpl.Expression(); e != tmpl[0].Expr {
			t.Errorf("Expression() = %v, want the segment itself", e)
		}
	})

	t.Run("mixed", func(t *testing.T) {
		e := Split(ctx, "{{first}} {{last}}!").Expression()

		step, _ := e.Primary()
		if step.Name != PassThrough || !step.Call {
			t.Fatalf("primary step = %v, want %s call", step, PassThrough)
		}

		if got := e.Values(); strings.Join(got, ",") != "first,last" {
			t.Errorf("Values() = %v", got)
		}

		got := e.Evaluate(ctx, s)
		if !Equal(got, []any{"Ada", " ", "Lovelace", "!"}) {
			t.Errorf("Evaluate() = %#v", got)
		}
	})
}

func TestSplit_Cached(t *testing.T) {
	ClearCache()

	ctx := context.Background()

	a := Split(ctx, "{{x.y}}")
	b := Split(ctx, "-{{x.y}}-")

	if a[0].Expr != b[1].Expr {
		t.Error("identical expression text was parsed twice")
	}
}

func TestSplitReader(t *testing.T) {
	tmpl, err := SplitReader(context.Background(), strings.NewReader("a{{b}}c"))
	if err != nil {
		t.Fatalf("SplitReader: %v", err)
	}

	if len(tmpl) != 3 || !tmpl[1].IsExpression() {
		t.Errorf("SplitReader = %v", tmpl)
	}

	e, err := ParseReader(context.Background(), strings.NewReader("@f(1)"))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if e.String() != "@f(1)" {
		t.Errorf("ParseReader = %v", e)
	}
}
