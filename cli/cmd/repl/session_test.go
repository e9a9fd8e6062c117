package repl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/bindable/dom"
	"github.com/ardnew/bindable/lang"
)

func newSession(t *testing.T, template string, vals map[string]any) *Session {
	t.Helper()

	ctx := context.Background()
	store := lang.NewStore()
	store.SetValues(ctx, vals)

	s, err := NewSession(ctx, store, template, WithExternal(map[string]any{
		"host": map[string]any{"name": "box"},
	}))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	t.Cleanup(s.Close)

	return s
}

func TestSession_Exec(t *testing.T) {
	s := newSession(t, "", map[string]any{"n": 2.0, "name": "Ada"})

	tests := []struct {
		name string
		line string
		want string
	}{
		{"empty", "  ", ""},
		{"value", "name", `"Ada"`},
		{"call", "@add(n, 3)", "5"},
		{"external", "#host.name", `"box"`},
		{"missing", "nope", "undefined"},
		{"get", ":get n", "2"},
		{"get missing", ":get zz", "undefined"},
		{"set", ":set m 4", "m = 4"},
		{"set equals", ":set k = @mul(n, 5)", "k = 10"},
		{"deps", ":deps a.@join(b, #c)", "values: a, b\nfunctions: join"},
		{"list", ":l", "  k = 10\n  m = 4\n  n = 2\n  name = \"Ada\"\n  @add() @cond() @div() @join() @mod() @mul() @pow() @sub()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Exec(context.Background(), tt.line)
			if err != nil {
				t.Fatalf("Exec(%q): %v", tt.line, err)
			}

			if res.Output != tt.want {
				t.Errorf("Exec(%q) = %q, want %q", tt.line, res.Output, tt.want)
			}
		})
	}
}

func TestSession_Flags(t *testing.T) {
	s := newSession(t, "", nil)

	tests := []struct {
		line string
		want Result
	}{
		{":quit", Result{Quit: true}},
		{":q", Result{Quit: true}},
		{":exit", Result{Quit: true}},
		{":clear", Result{Clear: true}},
		{":e", Result{Edit: true}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			res, err := s.Exec(context.Background(), tt.line)
			if err != nil || res != tt.want {
				t.Errorf("Exec(%q) = %+v, %v, want %+v", tt.line, res, err, tt.want)
			}
		})
	}
}

func TestSession_Errors(t *testing.T) {
	s := newSession(t, "", nil)

	tests := []struct {
		line string
		want error
	}{
		{":bogus", ErrUnknownCommand},
		{":get", ErrUsage},
		{":set", ErrUsage},
		{":set =1", ErrUsage},
		{":del", ErrUsage},
		{":deps", ErrUsage},
		{":render", ErrNoTemplate},
		{":sites", ErrNoTemplate},
		{"a..b", lang.ErrSyntax},
		{":set a [1,", lang.ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := s.Exec(context.Background(), tt.line)
			if !errors.Is(err, tt.want) {
				t.Errorf("Exec(%q) error = %v, want %v", tt.line, err, tt.want)
			}
		})
	}
}

func TestSession_Template(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, `<p title="{{name}}">Hi {{name}}</p>`, map[string]any{"name": "Ada"})

	res, err := s.Exec(ctx, ":render")
	if err != nil {
		t.Fatalf(":render: %v", err)
	}

	if want := `<p title="Ada">Hi Ada</p>`; res.Output != want {
		t.Errorf(":render = %q, want %q", res.Output, want)
	}

	res, err = s.Exec(ctx, `:set name "Lin"`)
	if err != nil {
		t.Fatalf(":set: %v", err)
	}

	if want := `<p title="Lin">Hi Lin</p>`; res.Output != want {
		t.Errorf(":set shows %q, want %q", res.Output, want)
	}

	res, err = s.Exec(ctx, ":sites")
	if err != nil {
		t.Fatalf(":sites: %v", err)
	}

	if n := strings.Count(res.Output, "values=[name]"); n != 2 {
		t.Errorf(":sites lists %d sites on name:\n%s", n, res.Output)
	}

	// Replacing the template detaches the old one from the store.
	old := s.root
	before := dom.String(old)

	if err := s.SetTemplate(ctx, "<b>{{name}}</b>"); err != nil {
		t.Fatalf("SetTemplate: %v", err)
	}

	if _, err := s.Exec(ctx, ":del name"); err != nil {
		t.Fatalf(":del: %v", err)
	}

	if got, _ := s.Render(); got != "<b>undefined</b>" {
		t.Errorf("render after delete = %q", got)
	}

	if got := dom.String(old); got != before {
		t.Errorf("detached template changed to %q", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{"two\nlines", "two..."},
		{strings.Repeat("x", 41), strings.Repeat("x", 37) + "..."},
	}

	for _, tt := range tests {
		if got := preview(tt.in); got != tt.want {
			t.Errorf("preview(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
