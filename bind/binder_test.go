package bind_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/ardnew/bindable/bind"
	"github.com/ardnew/bindable/dom"
	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

func jsonLogger(buf *bytes.Buffer) log.Logger {
	return log.Make(buf,
		log.WithLevel(log.LevelDebug),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)
}

func records(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()

	var out []map[string]any

	for line := range strings.SplitSeq(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSON record %q: %v", line, err)
		}

		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}

	return out
}

func fragment(t *testing.T, s string) *html.Node {
	t.Helper()

	root, err := dom.Fragment(s)
	if err != nil {
		t.Fatalf("Fragment(%q): %v", s, err)
	}

	return root
}

func newBinder(t *testing.T, vals map[string]any, opts ...bind.Option) (*bind.Binder, *lang.Store) {
	t.Helper()

	s := lang.NewStore()
	s.SetValues(context.Background(), vals)

	return bind.New(dom.Tree{}, s, opts...), s
}

func TestScenarioA_TextSite(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"name": "Ada"})
	root := fragment(t, "<p>Hello {{name}}!</p>")

	if n := b.Bind(ctx, root); n != 1 {
		t.Fatalf("Bind created %d sites, want 1", n)
	}

	sites := b.Sites()
	if len(sites) != 1 || !slices.Equal(sites[0].Values, []string{"name"}) || len(sites[0].Functions) != 0 {
		t.Fatalf("Sites() = %+v", sites)
	}

	if got, want := dom.String(root), "<p>Hello Ada!</p>"; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	if n := b.Update(ctx, s.Set(ctx, "name", "Lin")); n != 1 {
		t.Errorf("Update re-evaluated %d sites, want 1", n)
	}

	if got, want := dom.String(root), "<p>Hello Lin!</p>"; got != want {
		t.Errorf("after update = %q, want %q", got, want)
	}
}

func TestScenarioB_Builtins(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder(t, nil)
	root := fragment(t, "<p>{{@add(1,2)}}</p><p>{{@add()}}</p>")

	b.Bind(ctx, root)

	if got, want := dom.String(root), "<p>3</p><p>undefined</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestScenarioC_MalformedExpression(t *testing.T) {
	var buf bytes.Buffer

	ctx := context.Background()
	b, _ := newBinder(t, nil, bind.WithLogger(jsonLogger(&buf)))
	root := fragment(t, "<p>{{1 + }}</p>")

	if n := b.Bind(ctx, root); n != 0 {
		t.Errorf("Bind created %d sites, want 0", n)
	}

	if got, want := dom.String(root), "<p>{{1 + }}</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if warns := records(t, &buf, "invalid expression"); len(warns) != 1 {
		t.Errorf("got %d diagnostics, want 1:\n%s", len(warns), buf.String())
	}
}

func TestScenarioD_AttributeName(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"key": "x", "val": "1"})
	root := fragment(t, `<div data-{{key}}="{{val}}"></div>`)

	if n := b.Bind(ctx, root); n != 1 {
		t.Fatalf("Bind created %d sites, want 1", n)
	}

	if deps := b.Sites()[0].Values; !slices.Equal(deps, []string{"key", "val"}) {
		t.Errorf("site values = %v, want [key val]", deps)
	}

	if got, want := dom.String(root), `<div data-x="1"></div>`; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	b.Update(ctx, s.Set(ctx, "key", "y"))

	if got, want := dom.String(root), `<div data-y="1"></div>`; got != want {
		t.Errorf("after rename = %q, want %q", got, want)
	}

	b.Update(ctx, s.Set(ctx, "val", "2"))

	if got, want := dom.String(root), `<div data-y="2"></div>`; got != want {
		t.Errorf("after value change = %q, want %q", got, want)
	}

	b.Update(ctx, s.Set(ctx, "key", " a b "))

	// Only leading dashes are dropped.
	if got, want := dom.String(root), `<div data-a-b-="2"></div>`; got != want {
		t.Errorf("after non-word name = %q, want %q", got, want)
	}
}

func TestUpdate_AttributeNameDashes(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"key": "--x"})
	root := fragment(t, `<div {{key}}="on"></div>`)

	b.Bind(ctx, root)

	tests := []struct {
		key  string
		want string
	}{
		{"--x", `<div x="on"></div>`},
		{"x--", `<div x--="on"></div>`},
		{"!a?b!", `<div a-b-="on"></div>`},
		{"a_b", `<div a_b="on"></div>`},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			b.Update(ctx, s.Set(ctx, "key", tt.key))

			if got := dom.String(root); got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUpdate_EmptyAttributeName(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"key": "x"})
	root := fragment(t, `<div id="d" {{key}}="on"></div>`)

	b.Bind(ctx, root)

	if got, want := dom.String(root), `<div id="d" x="on"></div>`; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	b.Update(ctx, s.Set(ctx, "key", "--"))

	if got, want := dom.String(root), `<div id="d"></div>`; got != want {
		t.Errorf("after empty name = %q, want %q", got, want)
	}

	b.Update(ctx, s.Set(ctx, "key", "y"))

	if got, want := dom.String(root), `<div id="d" y="on"></div>`; got != want {
		t.Errorf("after restoring name = %q, want %q", got, want)
	}
}

func TestBind_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sites int
		want  string
	}{
		{
			name:  "mixed value concatenates",
			input: `<a class="btn {{kind}}"></a>`,
			sites: 1,
			want:  `<a class="btn primary"></a>`,
		},
		{
			name:  "whole value",
			input: `<a href="{{@add('/u/', id)}}"></a>`,
			sites: 1,
			want:  `<a href="/u/7"></a>`,
		},
		{
			name:  "escaped value",
			input: `<a title="\{{kind}}"></a>`,
			sites: 0,
			want:  `<a title="{{kind}}"></a>`,
		},
		{
			name:  "plain attributes untouched",
			input: `<a title="plain" id="x"></a>`,
			sites: 0,
			want:  `<a title="plain" id="x"></a>`,
		},
		{
			name:  "literal value with name expression",
			input: `<a aria-{{kind}}="true"></a>`,
			sites: 1,
			want:  `<a aria-primary="true"></a>`,
		},
		{
			name:  "invalid expression stays",
			input: `<a title="{{ 1 + }}"></a>`,
			sites: 0,
			want:  `<a title="{{ 1 + }}"></a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBinder(t, map[string]any{"kind": "primary", "id": 7})
			root := fragment(t, tt.input)

			if n := b.Bind(context.Background(), root); n != tt.sites {
				t.Errorf("Bind created %d sites, want %d", n, tt.sites)
			}

			if got := dom.String(root); got != tt.want {
				t.Errorf("render = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBind_NoDelimiterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder(t, nil)
	root := fragment(t, `<p title="t">plain { text }</p>`)

	for range 2 {
		if n := b.Bind(ctx, root); n != 0 {
			t.Fatalf("Bind created %d sites, want 0", n)
		}
	}

	if len(b.Sites()) != 0 {
		t.Errorf("Sites() = %v, want none", b.Sites())
	}
}

func TestBind_EscapedText(t *testing.T) {
	ctx := context.Background()
	b, _ := newBinder(t, map[string]any{"x": 1})
	root := fragment(t, `<p>\{{x}} is {{x}}</p>`)

	if n := b.Bind(ctx, root); n != 1 {
		t.Errorf("Bind created %d sites, want 1", n)
	}

	if got, want := dom.String(root), "<p>{{x}} is 1</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestUpdate_Span(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{
		"items": []any{"a", dom.HTML("<b>x</b>"), 1},
	})
	root := fragment(t, "<p>[{{items}}]</p>")

	b.Bind(ctx, root)

	if got, want := dom.String(root), "<p>[a<b>x</b>1]</p>"; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	steps := []struct {
		value any
		want  string
	}{
		{"z", "<p>[z]</p>"},
		{[]any{}, "<p>[]</p>"},
		{[]any{"p", "q"}, "<p>[pq]</p>"},
		{lang.Undefined, "<p>[undefined]</p>"},
		{nil, "<p>[null]</p>"},
		{dom.HTML("<i>1</i><i>2</i>"), "<p>[<i>1</i><i>2</i>]</p>"},
		{"<esc>", "<p>[&lt;esc&gt;]</p>"},
	}

	for _, step := range steps {
		b.Update(ctx, s.Set(ctx, "items", step.value))

		if got := dom.String(root); got != step.want {
			t.Errorf("items = %#v: render = %q, want %q", step.value, got, step.want)
		}

		// Siblings are never touched.
		p := root.FirstChild
		if p.FirstChild.Data != "[" || p.LastChild.Data != "]" {
			t.Errorf("items = %#v: brackets changed: %q", step.value, dom.String(root))
		}
	}
}

func TestUpdate_Isolation(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"a": "A", "b": "B"})
	root := fragment(t, "<p>{{a}}</p><p>{{b}}</p>")

	b.Bind(ctx, root)

	second := root.LastChild.FirstChild

	if n := b.Update(ctx, s.Set(ctx, "a", "A2")); n != 1 {
		t.Errorf("Update re-evaluated %d sites, want 1", n)
	}

	if root.LastChild.FirstChild != second {
		t.Error("unaffected site was re-rendered")
	}

	if got, want := dom.String(root), "<p>A2</p><p>B</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if n := b.Update(ctx, lang.Change{Values: []string{"c"}}); n != 0 {
		t.Errorf("Update of unrelated name re-evaluated %d sites", n)
	}
}

func TestUpdate_Functions(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"n": 2})
	root := fragment(t, "<p>{{@twice(n)}}</p>")

	b.Bind(ctx, root)

	if got, want := dom.String(root), "<p>undefined</p>"; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	c, err := s.SetFunc(ctx, "twice", func(x float64) float64 { return 2 * x })
	if err != nil {
		t.Fatalf("SetFunc: %v", err)
	}

	if n := b.Update(ctx, c); n != 1 {
		t.Errorf("Update re-evaluated %d sites, want 1", n)
	}

	if got, want := dom.String(root), "<p>4</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	b, s := newBinder(t, map[string]any{"name": "Ada"})
	root := fragment(t, "<p>{{name}}</p>")

	b.Bind(ctx, root)

	cancel := b.Watch()
	s.Set(ctx, "name", "Lin")

	if got, want := dom.String(root), "<p>Lin</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	cancel()
	s.Set(ctx, "name", "Bo")

	if got, want := dom.String(root), "<p>Lin</p>"; got != want {
		t.Errorf("render after cancel = %q, want %q", got, want)
	}
}

func TestUnbind(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*bind.Binder, *lang.Store, *html.Node) {
		t.Helper()

		b, s := newBinder(t, map[string]any{"a": "A", "k": "x"})
		root := fragment(t, `<div id="one"><p title="{{a}}">{{a}}</p></div><div data-{{k}}="{{a}}">{{a}}</div>`)

		if n := b.Bind(ctx, root); n != 4 {
			t.Fatalf("Bind created %d sites, want 4", n)
		}

		return b, s, root
	}

	t.Run("element covers descendants", func(t *testing.T) {
		b, s, root := setup(t)

		if n := b.Unbind(ctx, root.FirstChild); n != 2 {
			t.Errorf("Unbind removed %d sites, want 2", n)
		}

		b.Update(ctx, s.Set(ctx, "a", "B"))

		if got, want := dom.String(root), `<div id="one"><p title="A">A</p></div><div data-x="B">B</div>`; got != want {
			t.Errorf("render = %q, want %q", got, want)
		}
	})

	t.Run("text node covers its site", func(t *testing.T) {
		b, _, root := setup(t)

		anchor := root.FirstChild.FirstChild.FirstChild
		if n := b.Unbind(ctx, anchor); n != 1 {
			t.Errorf("Unbind removed %d sites, want 1", n)
		}

		if n := b.Unbind(ctx, anchor); n != 0 {
			t.Errorf("second Unbind removed %d sites, want 0", n)
		}
	})

	t.Run("attribute covers its site", func(t *testing.T) {
		b, _, root := setup(t)

		div := root.LastChild
		if n := b.Unbind(ctx, bind.Attr{Owner: div, Name: "data-x"}); n != 1 {
			t.Errorf("Unbind removed %d sites, want 1", n)
		}

		if n := b.Unbind(ctx, bind.Attr{Owner: div, Name: "data-x"}); n != 0 {
			t.Errorf("second Unbind removed %d sites, want 0", n)
		}

		if len(b.Sites()) != 3 {
			t.Errorf("got %d sites, want 3", len(b.Sites()))
		}
	})

	t.Run("root covers all", func(t *testing.T) {
		b, s, root := setup(t)

		if n := b.Unbind(ctx, root); n != 4 {
			t.Errorf("Unbind removed %d sites, want 4", n)
		}

		if n := b.Update(ctx, s.Set(ctx, "a", "B")); n != 0 {
			t.Errorf("Update after Unbind re-evaluated %d sites", n)
		}
	})
}

func TestBind_Unsupported(t *testing.T) {
	var buf bytes.Buffer

	ctx := context.Background()
	b, _ := newBinder(t, nil, bind.WithLogger(jsonLogger(&buf)))

	comment := &html.Node{Type: html.CommentNode, Data: "{{x}}"}

	if n := b.Bind(ctx, 42, comment); n != 0 {
		t.Errorf("Bind created %d sites, want 0", n)
	}

	if n := b.Unbind(ctx, "nope"); n != 0 {
		t.Errorf("Unbind removed %d sites, want 0", n)
	}

	recs := append(records(t, &buf, "cannot bind"), records(t, &buf, "cannot unbind")...)
	if len(recs) != 3 {
		t.Fatalf("got %d error records, want 3:\n%s", len(recs), buf.String())
	}

	for _, rec := range recs {
		if rec["level"] != "ERROR" || !strings.Contains(fmt.Sprint(rec["error"]), "unsupported node") {
			t.Errorf("record = %v", rec)
		}
	}
}

func TestUpdate_PanicIsContained(t *testing.T) {
	var buf bytes.Buffer

	ctx := context.Background()

	s := lang.NewStore()
	s.SetValues(ctx, map[string]any{"a": "ok", "b": "ok"})

	root := &memNode{kind: bind.KindFragment}
	for _, c := range []*memNode{elem("p", nil, text("{{a}}")), elem("p", nil, text("{{b}}"))} {
		c.parent = root
		root.children = append(root.children, c)
	}

	b := bind.New(memTree{panicText: "boom"}, s, bind.WithLogger(jsonLogger(&buf)))
	b.Bind(ctx, root)

	if got, want := root.String(), "<p>ok</p><p>ok</p>"; got != want {
		t.Fatalf("initial render = %q, want %q", got, want)
	}

	c := s.SetValues(ctx, map[string]any{"a": "boom", "b": "fine"})
	if n := b.Update(ctx, c); n != 2 {
		t.Errorf("Update re-evaluated %d sites, want 2", n)
	}

	if got, want := root.String(), "<p>ok</p><p>fine</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if recs := records(t, &buf, "site update failed"); len(recs) != 1 {
		t.Errorf("got %d panic records, want 1:\n%s", len(recs), buf.String())
	}

	// The failed site still works afterwards.
	b.Update(ctx, s.Set(ctx, "a", "again"))

	if got, want := root.String(), "<p>again</p><p>fine</p>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestBind_MemTreeAttributes(t *testing.T) {
	ctx := context.Background()

	s := lang.NewStore()
	s.SetValues(ctx, map[string]any{"k": "x", "v": 1})

	div := elem("div", [][2]string{{"data-{{k}}", "{{v}}"}, {"id", "d"}})
	root := &memNode{kind: bind.KindFragment, children: []*memNode{div}}
	div.parent = root

	b := bind.New(memTree{}, s)
	b.Bind(ctx, bind.Attr{Owner: div, Name: "data-{{k}}"})

	if got, want := root.String(), "<div id=d data-x=1></div>"; got != want {
		t.Errorf("render = %q, want %q", got, want)
	}

	if n := b.Bind(ctx, bind.Attr{Owner: div, Name: "missing"}); n != 0 {
		t.Errorf("Bind of a missing attribute created %d sites", n)
	}
}

func TestUpdate_Concurrent(t *testing.T) {
	ctx := context.Background()

	var sb strings.Builder
	for i := range 50 {
		fmt.Fprintf(&sb, "<p>{{v%d}}-{{all}}</p>", i)
	}

	b, s := newBinder(t, map[string]any{"all": 0}, bind.WithConcurrency(4))
	root := fragment(t, sb.String())

	if n := b.Bind(ctx, root); n != 100 {
		t.Fatalf("Bind created %d sites, want 100", n)
	}

	cancel := b.Watch()
	defer cancel()

	var wg sync.WaitGroup

	for i := range 50 {
		wg.Go(func() { s.Set(ctx, fmt.Sprintf("v%d", i), i) })
	}

	wg.Wait()

	s.Set(ctx, "all", "x")

	out := dom.String(root)
	for i := range 50 {
		if want := fmt.Sprintf("<p>%d-x</p>", i); !strings.Contains(out, want) {
			t.Fatalf("render is missing %q:\n%s", want, out)
		}
	}
}

func TestBind_Trace(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none"),
	)

	ctx := context.Background()
	b, _ := newBinder(t, map[string]any{"a": 1}, bind.WithLogger(logger), bind.WithTrace(true))
	b.Bind(ctx, fragment(t, "<p>{{@add(a, 1)}}</p>"))

	var calls []any

	for _, rec := range records(t, &buf, "eval step") {
		if call, ok := rec["call"]; ok {
			calls = append(calls, call)
		}
	}

	if len(calls) != 1 || calls[0] != "add(1, 1)" {
		t.Errorf("traced calls = %v, want [add(1, 1)]", calls)
	}
}
