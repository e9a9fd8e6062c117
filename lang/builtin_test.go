package lang

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		args []any
		want any
		err  error
	}{
		{"add numbers", "add", []any{1.0, 2.0, 3.5}, 6.5, nil},
		{"add single", "add", []any{"x"}, "x", nil},
		{"add none", "add", nil, Undefined, nil},
		{"add concatenates strings", "add", []any{1.0, "a", 2.0}, "1a2", nil},
		{"add rejects objects", "add", []any{1.0, true}, nil, ErrOperand},
		{"mul", "mul", []any{2.0, 3.0, 4.0}, 24.0, nil},
		{"sub", "sub", []any{5.0, 7.0}, -2.0, nil},
		{"sub arity", "sub", []any{5.0}, nil, ErrArity},
		{"div", "div", []any{1.0, 4.0}, 0.25, nil},
		{"div by zero", "div", []any{1.0, 0.0}, math.Inf(1), nil},
		{"pow", "pow", []any{2.0, 10.0}, 1024.0, nil},
		{"mod integers", "mod", []any{7, 3}, 1, nil},
		{"mod floats", "mod", []any{7.5, 2.0}, 1.5, nil},
		{"mod negative", "mod", []any{-7.0, 3.0}, -1.0, nil},
		{"mod zero", "mod", []any{1.0, 0.0}, math.NaN(), nil},
		{"mod operand", "mod", []any{"a", 1.0}, nil, ErrOperand},
		{"cond true", "cond", []any{"x", 1.0, 2.0}, 1.0, nil},
		{"cond false", "cond", []any{"", 1.0, 2.0}, 2.0, nil},
		{"cond missing branch", "cond", []any{false, 1.0}, Undefined, nil},
		{"join default separator", "join", []any{Undefined, "a", "b"}, "a,b", nil},
		{"join", "join", []any{" ", "a", nil, 1.0, []any{"x", "y"}}, "a  1 x,y", nil},
		{"join empty", "join", []any{"-"}, "", nil},
		{"pass", PassThrough, []any{"a", 1.0}, []any{"a", 1.0}, nil},
		{"pass empty", PassThrough, nil, []any{}, nil},
	}

	table := Builtins()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, ok := table[tt.fn]
			if !ok {
				t.Fatalf("no built-in %q", tt.fn)
			}

			got, err := fn(tt.args...)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !Equal(got, tt.want) {
				t.Errorf("%s(%v) = %#v, want %#v", tt.fn, tt.args, got, tt.want)
			}
		})
	}
}

func TestBuiltins_FromExpressions(t *testing.T) {
	ctx := context.Background()

	s := NewStore()
	s.SetValues(ctx, map[string]any{"price": 2.5, "qty": 4.0, "label": "total"})

	tests := []struct {
		src  string
		want any
	}{
		{"@mul(price, qty)", 10.0},
		{"@add(label, ': ', @mul(price, qty))", "total: 10"},
		{"@cond(@sub(qty, 4), 'some', 'none')", "none"},
		{"@join(', ', [price, qty], label)", "2.5,4, total"},
		{"@mod(0x7, 0b11)", int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mustParse(t, tt.src).Evaluate(ctx, s)
			if !Equal(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}
