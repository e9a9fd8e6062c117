package lang

import (
	"slices"
	"testing"
)

func TestExpression_Dependencies(t *testing.T) {
	tests := []struct {
		input     string
		values    []string
		functions []string
	}{
		{"name", []string{"name"}, nil},
		{"user.name.first", []string{"user"}, nil},
		{"@f()", nil, []string{"f"}},
		{"@f(x, g(y))", []string{"x", "y"}, []string{"f", "g"}},
		{"a.map(b)", []string{"a", "b"}, nil},
		{"a.@b", []string{"a"}, nil},
		{"#ext(a)", []string{"a"}, nil},
		{"#env.HOME", nil, nil},
		{"f([x, {k: y}], 1, 'z')", []string{"x", "y"}, []string{"f"}},
		{"f(x, x, @x)", []string{"x"}, []string{"f"}},
		{"a.b(c).d(e.f)", []string{"a", "c", "e"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if got := e.Values(); !slices.Equal(got, tt.values) && (len(got) > 0 || len(tt.values) > 0) {
				t.Errorf("Values() = %v, want %v", got, tt.values)
			}

			if got := e.Functions(); !slices.Equal(got, tt.functions) && (len(got) > 0 || len(tt.functions) > 0) {
				t.Errorf("Functions() = %v, want %v", got, tt.functions)
			}

			for _, v := range tt.values {
				if !e.DependsOnValue(v) {
					t.Errorf("DependsOnValue(%q) = false", v)
				}
			}

			for _, f := range tt.functions {
				if !e.DependsOnFunction(f) {
					t.Errorf("DependsOnFunction(%q) = false", f)
				}
			}
		})
	}
}

func TestExpression_Affected(t *testing.T) {
	e, err := Parse("@fmt(price, currency)")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	tests := []struct {
		name   string
		change Change
		want   bool
	}{
		{"empty", Change{}, false},
		{"unrelated value", Change{Values: []string{"qty"}}, false},
		{"argument value", Change{Values: []string{"qty", "price"}}, true},
		{"function", Change{Functions: []string{"fmt"}}, true},
		{"value named like the function", Change{Values: []string{"fmt"}}, false},
		{"function named like a value", Change{Functions: []string{"price"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Affected(tt.change); got != tt.want {
				t.Errorf("Affected(%+v) = %v, want %v", tt.change, got, tt.want)
			}
		})
	}
}

func TestNewExpression_Immutable(t *testing.T) {
	steps := []Step{{Name: "a"}, {Name: "b"}}
	e := NewExpression(steps...)

	steps[0].Name = "changed"

	if got := e.String(); got != "a.b" {
		t.Errorf("String() = %q after mutating input, want %q", got, "a.b")
	}

	out := e.Steps()
	out[1].Name = "changed"

	if got := e.String(); got != "a.b" {
		t.Errorf("String() = %q after mutating Steps(), want %q", got, "a.b")
	}

	if p, _ := e.Primary(); p.Scope != ScopeStore {
		t.Errorf("first step scope = %v, want %v", p.Scope, ScopeStore)
	}
}

func TestExpression_Empty(t *testing.T) {
	e := NewExpression()

	if e.String() != "undefined" {
		t.Errorf("String() = %q, want %q", e.String(), "undefined")
	}

	if e.IsCall() || len(e.Values()) != 0 || len(e.Functions()) != 0 {
		t.Error("empty expression reports a call or dependencies")
	}
}

func TestExpression_ToMap(t *testing.T) {
	e, err := Parse("@f(1, [x], {k: 'v'}).y")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	m := e.ToMap()

	if m["source"] != "@f(1, [x], {\"k\": \"v\"}).y" {
		t.Errorf("source = %v", m["source"])
	}

	steps, ok := m["steps"].([]any)
	if !ok || len(steps) != 2 {
		t.Fatalf("steps = %#v, want 2 entries", m["steps"])
	}

	first, _ := steps[0].(map[string]any)
	if first["scope"] != "store" || first["name"] != "f" {
		t.Errorf("first step = %v", first)
	}

	args, _ := first["args"].([]any)
	if len(args) != 3 {
		t.Fatalf("args = %v, want 3 entries", first["args"])
	}

	if lit, _ := args[0].(map[string]any); lit["literal"] != "1" {
		t.Errorf("args[0] = %v, want literal 1", args[0])
	}

	if arr, _ := args[1].(map[string]any); arr["array"] == nil {
		t.Errorf("args[1] = %v, want array", args[1])
	}

	if obj, _ := args[2].(map[string]any); obj["object"] == nil {
		t.Errorf("args[2] = %v, want object", args[2])
	}

	second, _ := steps[1].(map[string]any)
	if second["scope"] != "pipe" {
		t.Errorf("second step scope = %v, want pipe", second["scope"])
	}

	if _, ok := second["args"]; ok {
		t.Error("property step has args")
	}
}

func TestScope_String(t *testing.T) {
	tests := []struct {
		s     Scope
		name  string
		sigil string
	}{
		{ScopePipe, "pipe", ""},
		{ScopeStore, "store", "@"},
		{ScopeExternal, "external", "#"},
		{Scope(9), "Scope(9)", ""},
	}

	for _, tt := range tests {
		if tt.s.String() != tt.name || tt.s.Sigil() != tt.sigil {
			t.Errorf("%d: String() = %q Sigil() = %q, want %q %q",
				int(tt.s), tt.s.String(), tt.s.Sigil(), tt.name, tt.sigil)
		}
	}
}
