package lang

import (
	"log/slog"
	"maps"
	"math"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// PassThrough is the name of the built-in that returns its arguments as an
// array. Mixed attribute templates compile to a call of it.
const PassThrough = "__pass__"

// Builtins returns a fresh copy of the built-in function table.
func Builtins() map[string]Function {
	return maps.Clone(builtins())
}

var builtins = sync.OnceValue(func() map[string]Function {
	return map[string]Function{
		PassThrough: passThrough,
		"join":      join,
		"add":       fold("+"),
		"mul":       fold("*"),
		"sub":       binary("-"),
		"div":       binary("/"),
		"mod":       mod,
		"pow":       binary("**"),
		"cond":      cond,
	}
})

// operators holds one compiled program per arithmetic operator. The operand
// types are unknown at compile time, so the programs dispatch at run time.
var operators = sync.OnceValue(func() map[string]*vm.Program {
	env := map[string]any{"a": any(nil), "b": any(nil)}
	progs := make(map[string]*vm.Program)

	for _, op := range []string{"+", "-", "*", "/", "%", "**"} {
		program, err := expr.Compile("a "+op+" b", expr.Env(env))
		if err != nil {
			panic(err)
		}

		progs[op] = program
	}

	return progs
})

// arith applies op to a and b. Strings concatenate under "+".
func arith(op string, a, b any) (any, error) {
	if op == "+" {
		_, as := a.(string)
		_, bs := b.(string)

		if as || bs {
			return Stringify(a) + Stringify(b), nil
		}
	}

	if _, ok := toFloat(a); !ok {
		return nil, ErrOperand.With(slog.String("op", op), slog.Any("operand", a))
	}

	if _, ok := toFloat(b); !ok {
		return nil, ErrOperand.With(slog.String("op", op), slog.Any("operand", b))
	}

	out, err := vm.Run(operators()[op], map[string]any{"a": a, "b": b})
	if err != nil {
		return nil, ErrOperand.Wrap(err).With(slog.String("op", op))
	}

	return out, nil
}

func fold(op string) Function {
	return func(args ...any) (any, error) {
		if len(args) == 0 {
			return Undefined, nil
		}

		acc := args[0]

		for _, arg := range args[1:] {
			var err error

			if acc, err = arith(op, acc, arg); err != nil {
				return nil, err
			}
		}

		return acc, nil
	}
}

func binary(op string) Function {
	return func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, ErrArity.With(slog.Int("want", 2), slog.Int("got", len(args)))
		}

		return arith(op, args[0], args[1])
	}
}

// mod uses integer remainder for integers and math.Mod otherwise. A zero
// divisor yields NaN.
func mod(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, ErrArity.With(slog.Int("want", 2), slog.Int("got", len(args)))
	}

	a, aok := toFloat(args[0])
	b, bok := toFloat(args[1])

	switch {
	case !aok || !bok:
		return nil, ErrOperand.With(slog.String("op", "%"))
	case b == 0:
		return math.NaN(), nil
	case isInteger(args[0]) && isInteger(args[1]):
		return arith("%", args[0], args[1])
	default:
		return math.Mod(a, b), nil
	}
}

func cond(args ...any) (any, error) {
	if Truthy(arg(args, 0)) {
		return arg(args, 1), nil
	}

	return arg(args, 2), nil
}

func passThrough(args ...any) (any, error) {
	out := make([]any, len(args))
	copy(out, args)

	return out, nil
}

// join concatenates items with sep. Null and undefined items are empty,
// and nested arrays are joined with commas.
func join(args ...any) (any, error) {
	sep := ","
	if s := arg(args, 0); !IsUndefined(s) {
		sep = Stringify(s)
	}

	var items []any
	if len(args) > 1 {
		items = args[1:]
	}

	return joinItems(items, sep), nil
}

func joinItems(items []any, sep string) string {
	parts := make([]string, len(items))

	for i, item := range items {
		switch item := item.(type) {
		case nil, UndefinedType:
		case []any:
			parts[i] = joinItems(item, ",")
		default:
			parts[i] = Stringify(item)
		}
	}

	return strings.Join(parts, sep)
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}

	return Undefined
}
