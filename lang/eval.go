package lang

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/bindable/log"
)

// Function is the native form of a callable stored under a name.
type Function func(args ...any) (any, error)

// Source resolves the names that store-scoped steps refer to.
type Source interface {
	Value(name string) (any, bool)
	Function(name string) (Function, bool)
}

// Deferred is a value that is not available yet. The evaluator awaits it
// before running the next step.
type Deferred interface {
	Await(ctx context.Context) (any, error)
}

// Future is a [Deferred] computed by a goroutine.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

// Defer starts fn in a new goroutine and returns its future result.
// A panic in fn rejects the future.
func Defer(ctx context.Context, fn func(context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.val, f.err = Undefined, ErrDeferred.With(slog.Any("panic", r))
			}
		}()

		f.val, f.err = fn(ctx)
	}()

	return f
}

// Await blocks until the result is ready or ctx is done.
func (f *Future) Await(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return Undefined, ctx.Err()
	}
}

// Evaluate runs the steps of e in order against src and returns the final
// value. It never fails. A missing callable or a rejected deferred value ends
// evaluation with [Undefined]. An error or panic from a call only makes that
// step Undefined, so a later @ or # step still runs.
func (e *Expression) Evaluate(ctx context.Context, src Source, opts ...Option) any {
	o := makeOptions(opts...)
	ev := evaluator{
		ctx:     ctx,
		src:     src,
		opts:    o,
		tracing: o.logger.Enabled(ctx, log.LevelTrace),
	}

	return ev.expression(e)
}

type evaluator struct {
	ctx     context.Context
	src     Source
	opts    options
	tracing bool
}

func (ev *evaluator) expression(e *Expression) (result any) {
	if e == nil || len(e.steps) == 0 {
		return Undefined
	}

	defer func() {
		if r := recover(); r != nil {
			ev.fault(e, ErrEvaluate.With(slog.Any("panic", r)))

			result = Undefined
		}
	}()

	var current any = Undefined

	for i, s := range e.steps {
		v, err := ev.step(i, current, s)
		if err == nil {
			v, err = ev.await(v)
		}

		if err != nil {
			ev.fault(e, err)

			return Undefined
		}

		current = v
	}

	return current
}

func (ev *evaluator) step(i int, current any, s Step) (any, error) {
	if !s.Call {
		v, err := ev.property(current, s)
		if err != nil {
			return nil, err
		}

		if ev.tracing {
			ev.trace("eval step",
				slog.Int("step", i),
				slog.String("source", sourceName(s)),
				slog.String("name", s.Name),
				slog.String("value", Format(v)),
			)
		}

		return v, nil
	}

	args := ev.arguments(s.Args)

	fn, ok := ev.callable(current, s)
	if !ok {
		return nil, ErrNotCallable.With(
			slog.String("source", sourceName(s)),
			slog.String("name", s.Name),
		)
	}

	v, err := invoke(fn, args)
	if err != nil {
		// The call ran, so the chain goes on from Undefined.
		if ev.tracing {
			ev.trace("eval fault",
				slog.Int("step", i),
				slog.String("source", sourceName(s)),
				slog.Any("error", ErrEvaluate.Wrap(err).With(
					slog.String("call", signature(s.Name, args)),
				)),
			)
		}

		return Undefined, nil
	}

	if ev.tracing {
		ev.trace("eval step",
			slog.Int("step", i),
			slog.String("source", sourceName(s)),
			slog.String("call", signature(s.Name, args)),
			slog.String("value", Format(v)),
		)
	}

	return v, nil
}

// await resolves v until it is no longer deferred.
func (ev *evaluator) await(v any) (any, error) {
	for {
		d, ok := v.(Deferred)
		if !ok {
			return v, nil
		}

		r, err := d.Await(ev.ctx)
		if err != nil {
			return nil, ErrDeferred.Wrap(err)
		}

		v = r
	}
}

func (ev *evaluator) fault(e *Expression, err error) {
	if !ev.tracing {
		return
	}

	ev.trace("eval fault",
		slog.String("expression", e.String()),
		slog.Any("error", err),
	)
}

// arguments evaluates nested expressions into a fresh slice, leaving the
// expression itself untouched.
func (ev *evaluator) arguments(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = ev.resolve(arg)
	}

	return out
}

func (ev *evaluator) resolve(arg any) any {
	switch arg := arg.(type) {
	case *Expression:
		return ev.expression(arg)
	case []any:
		return ev.arguments(arg)
	case *Object:
		obj := NewObject()
		for k, v := range arg.All() {
			obj.Set(k, ev.resolve(v))
		}

		return obj
	default:
		return arg
	}
}

func (ev *evaluator) callable(current any, s Step) (Function, bool) {
	switch s.Scope {
	case ScopeStore:
		if ev.src == nil {
			return nil, false
		}

		fn, ok := ev.src.Function(s.Name)

		return fn, ok && fn != nil
	case ScopeExternal:
		return lookupCallable(ev.opts.external, s.Name)
	default:
		return lookupCallable(current, s.Name)
	}
}

func (ev *evaluator) property(current any, s Step) (any, error) {
	switch s.Scope {
	case ScopeStore:
		if ev.src == nil {
			return Undefined, nil
		}

		if v, ok := ev.src.Value(s.Name); ok {
			return v, nil
		}

		return Undefined, nil
	case ScopeExternal:
		return lookupProperty(ev.opts.external, s.Name), nil
	default:
		if current == nil || IsUndefined(current) {
			return nil, ErrOperand.With(
				slog.String("name", s.Name),
				slog.String("of", Stringify(current)),
			)
		}

		return lookupProperty(current, s.Name), nil
	}
}

func (ev *evaluator) trace(msg string, attrs ...slog.Attr) {
	ev.opts.logger.TraceContext(ev.ctx, msg, attrs...)
}

func sourceName(s Step) string {
	switch s.Scope {
	case ScopeStore:
		if s.Call {
			return "functions"
		}

		return "values"
	default:
		return s.Scope.String()
	}
}

func signature(name string, args []any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = Format(arg)
	}

	return name + "(" + strings.Join(parts, ", ") + ")"
}

// invoke calls fn, turning a panic into an error.
func invoke(fn Function, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Undefined, ErrEvaluate.With(slog.Any("panic", r))
		}
	}()

	return fn(args...)
}

// lookupCallable finds a function named name on source: a map entry, a
// struct field, or a method.
func lookupCallable(source any, name string) (Function, bool) {
	if source == nil || IsUndefined(source) {
		return nil, false
	}

	if v := lookupProperty(source, name); !IsUndefined(v) {
		return AsFunction(v)
	}

	rv := reflect.ValueOf(source)
	for _, n := range candidates(name) {
		if m := rv.MethodByName(n); m.IsValid() {
			return reflectFunction(m), true
		}
	}

	return nil, false
}

// AsFunction converts any Go func value into a [Function]. Arguments are
// converted to the declared parameter types, and results of the forms (),
// (T), (error), and (T, error) are supported.
func AsFunction(v any) (Function, bool) {
	switch fn := v.(type) {
	case Function:
		return fn, fn != nil
	case func(...any) (any, error):
		return fn, fn != nil
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, false
	}

	return reflectFunction(rv), true
}

var errorType = reflect.TypeFor[error]()

func reflectFunction(fv reflect.Value) Function {
	return func(args ...any) (any, error) {
		t := fv.Type()
		n := t.NumIn()

		if t.IsVariadic() {
			if len(args) < n-1 {
				return Undefined, ErrArity.With(slog.Int("want", n-1), slog.Int("got", len(args)))
			}
		} else if len(args) != n {
			return Undefined, ErrArity.With(slog.Int("want", n), slog.Int("got", len(args)))
		}

		in := make([]reflect.Value, len(args))

		for i, arg := range args {
			var pt reflect.Type
			if t.IsVariadic() && i >= n-1 {
				pt = t.In(n - 1).Elem()
			} else {
				pt = t.In(i)
			}

			av, err := convert(arg, pt)
			if err != nil {
				return Undefined, err.With(slog.Int("arg", i))
			}

			in[i] = av
		}

		out := fv.Call(in)

		switch len(out) {
		case 0:
			return Undefined, nil
		case 1:
			if t.Out(0) == errorType {
				return Undefined, asError(out[0])
			}

			return out[0].Interface(), nil
		case 2:
			if t.Out(1) == errorType {
				return out[0].Interface(), asError(out[1])
			}
		}

		res := make([]any, len(out))
		for i, o := range out {
			res[i] = o.Interface()
		}

		return res, nil
	}
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}

	err, _ := v.Interface().(error)

	return err
}

// convert adapts arg to a parameter of type pt.
func convert(arg any, pt reflect.Type) (reflect.Value, *Error) {
	if arg == nil || IsUndefined(arg) {
		return reflect.Zero(pt), nil
	}

	av := reflect.ValueOf(arg)

	switch {
	case av.Type().AssignableTo(pt):
		return av, nil
	case isNumberKind(av.Kind()) && isNumberKind(pt.Kind()),
		av.Kind() == reflect.String && pt.Kind() == reflect.String:
		return av.Convert(pt), nil
	case pt.Kind() == reflect.String:
		return reflect.ValueOf(Stringify(arg)).Convert(pt), nil
	}

	return reflect.Value{}, ErrOperand.With(
		slog.String("type", fmt.Sprintf("%T", arg)),
		slog.String("want", pt.String()),
	)
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr, reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// lookupProperty reads name from source: a map key, an exported struct
// field, or the length of a string, slice, or array.
func lookupProperty(source any, name string) any {
	switch src := source.(type) {
	case map[string]any:
		if v, ok := src[name]; ok {
			return v
		}

		return Undefined
	case *Object:
		if v, ok := src.Get(name); ok {
			return v
		}

		return Undefined
	case string:
		if name == "length" {
			return utf8.RuneCountInString(src)
		}

		return Undefined
	}

	rv := reflect.ValueOf(source)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Undefined
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Undefined
		}

		if v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key())); v.IsValid() {
			return v.Interface()
		}
	case reflect.Struct:
		for _, n := range candidates(name) {
			f, ok := rv.Type().FieldByName(n)
			if ok && f.IsExported() {
				return rv.FieldByIndex(f.Index).Interface()
			}
		}
	case reflect.Slice, reflect.Array, reflect.String:
		if name == "length" {
			return rv.Len()
		}
	}

	return Undefined
}

// candidates returns name and, when it differs, name with its first letter
// upper-cased, so lower-case names in source reach exported Go members.
func candidates(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if up := unicode.ToUpper(r); up != r {
		return []string{name, string(up) + name[size:]}
	}

	return []string{name}
}
