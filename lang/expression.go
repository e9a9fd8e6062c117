package lang

import (
	"maps"
	"slices"
	"strings"
)

// Scope selects where a step looks up its name.
type Scope int

//go:generate stringer --linecomment --type Scope --output scope_string.go

const (
	ScopePipe     Scope = iota // pipe
	ScopeStore                 // store
	ScopeExternal              // external
)

// Sigil returns the prefix that selects s in source text.
func (s Scope) Sigil() string {
	switch s {
	case ScopeStore:
		return "@"
	case ScopeExternal:
		return "#"
	default:
		return ""
	}
}

// Step is one link of an expression chain: a property read, or a call when
// Call is set. Args holds literal values and nested [*Expression] values.
type Step struct {
	Scope Scope
	Name  string
	Call  bool
	Args  []any
}

func (s Step) String() string {
	var b strings.Builder

	b.WriteString(s.Scope.Sigil())
	b.WriteString(s.Name)

	if s.Call {
		b.WriteByte('(')

		for i, arg := range s.Args {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(Format(arg))
		}

		b.WriteByte(')')
	}

	return b.String()
}

// Expression is an immutable chain of steps. Its value and function
// dependencies are computed once, when the expression is built.
type Expression struct {
	steps     []Step
	values    map[string]struct{}
	functions map[string]struct{}
}

// NewExpression builds an expression from steps. A pipe scope on the first
// step means the store, since there is no previous result to pipe.
//
// Dependencies are the store name read or called by the first step, plus the
// dependencies of every expression passed as an argument to any call.
func NewExpression(steps ...Step) *Expression {
	e := &Expression{
		steps:     slices.Clone(steps),
		values:    make(map[string]struct{}),
		functions: make(map[string]struct{}),
	}

	if len(e.steps) == 0 {
		return e
	}

	if first := &e.steps[0]; first.Scope == ScopePipe {
		first.Scope = ScopeStore
	}

	if first := e.steps[0]; first.Scope == ScopeStore {
		if first.Call {
			e.functions[first.Name] = struct{}{}
		} else {
			e.values[first.Name] = struct{}{}
		}
	}

	for _, s := range e.steps {
		if !s.Call {
			continue
		}

		for _, arg := range s.Args {
			e.absorb(arg)
		}
	}

	return e
}

// absorb unions the dependencies of every expression reachable from arg.
func (e *Expression) absorb(arg any) {
	switch arg := arg.(type) {
	case *Expression:
		if arg == nil {
			return
		}

		maps.Copy(e.values, arg.values)
		maps.Copy(e.functions, arg.functions)
	case []any:
		for _, item := range arg {
			e.absorb(item)
		}
	case *Object:
		for _, item := range arg.All() {
			e.absorb(item)
		}
	}
}

// Steps returns a copy of the step chain.
func (e *Expression) Steps() []Step {
	if e == nil {
		return nil
	}

	return slices.Clone(e.steps)
}

// Primary returns the first step.
func (e *Expression) Primary() (Step, bool) {
	if e == nil || len(e.steps) == 0 {
		return Step{}, false
	}

	return e.steps[0], true
}

// IsCall reports whether the first step is a call.
func (e *Expression) IsCall() bool {
	s, ok := e.Primary()

	return ok && s.Call
}

// Values returns the sorted names of the store values e depends on.
func (e *Expression) Values() []string {
	if e == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(e.values))
}

// Functions returns the sorted names of the store functions e depends on.
func (e *Expression) Functions() []string {
	if e == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(e.functions))
}

// DependsOnValue reports whether a change to the store value name affects e.
func (e *Expression) DependsOnValue(name string) bool {
	if e == nil {
		return false
	}

	_, ok := e.values[name]

	return ok
}

// DependsOnFunction reports whether a change to the store function name
// affects e.
func (e *Expression) DependsOnFunction(name string) bool {
	if e == nil {
		return false
	}

	_, ok := e.functions[name]

	return ok
}

// Affected reports whether c names anything e depends on.
func (e *Expression) Affected(c Change) bool {
	return slices.ContainsFunc(c.Values, e.DependsOnValue) ||
		slices.ContainsFunc(c.Functions, e.DependsOnFunction)
}

// String renders e as source text that parses back to an equivalent
// expression. A leading store property is written without its sigil.
func (e *Expression) String() string {
	if e == nil || len(e.steps) == 0 {
		return "undefined"
	}

	parts := make([]string, len(e.steps))

	for i, s := range e.steps {
		if i == 0 && s.Scope == ScopeStore && !s.Call && !isKeyword(s.Name) {
			s.Scope = ScopePipe
		}

		parts[i] = s.String()
	}

	return strings.Join(parts, ".")
}

// ToMap returns e as a tree of plain maps and slices, suitable for encoding.
func (e *Expression) ToMap() map[string]any {
	steps := make([]any, 0, len(e.Steps()))

	for _, s := range e.Steps() {
		m := map[string]any{
			"scope": s.Scope.String(),
			"name":  s.Name,
		}

		if s.Call {
			args := make([]any, len(s.Args))
			for i, arg := range s.Args {
				args[i] = argMap(arg)
			}

			m["args"] = args
		}

		steps = append(steps, m)
	}

	return map[string]any{
		"source":    e.String(),
		"steps":     steps,
		"values":    e.Values(),
		"functions": e.Functions(),
	}
}

func isKeyword(name string) bool {
	switch name {
	case "null", "undefined", "true", "false":
		return true
	default:
		return false
	}
}

func argMap(arg any) any {
	switch arg := arg.(type) {
	case *Expression:
		return map[string]any{"expression": arg.ToMap()}
	case []any:
		items := make([]any, len(arg))
		for i, item := range arg {
			items[i] = argMap(item)
		}

		return map[string]any{"array": items}
	case *Object:
		obj := NewObject()
		for k, item := range arg.All() {
			obj.Set(k, argMap(item))
		}

		return map[string]any{"object": obj}
	default:
		return map[string]any{"literal": Format(arg)}
	}
}
