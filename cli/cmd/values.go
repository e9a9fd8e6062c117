package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindable/bind"
	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/lib"
	"github.com/ardnew/bindable/log"
)

// Values holds the flags shared by every command that fills a store.
type Values struct {
	Files []string `help:"YAML or JSON values file(s), merged in order" name:"values" placeholder:"FILE" short:"f" type:"existingfile"`
	Set   []string `help:"Set a value from a literal, e.g. --set 'name=\"Ada\"'" placeholder:"NAME=LITERAL"`
	Env   bool     `default:"true" help:"Expose the host table to #-scoped steps."         negatable:""`
	Lib   bool     `default:"true" help:"Install the function library (markdown, date, ...)." negatable:""`
	Trace bool     `help:"Log each evaluation step at trace level."`
}

// load reads the values files and --set flags into one ordered object.
// Later files and flags override earlier ones.
func (v *Values) load(ctx context.Context, store *lang.Store) (*lang.Object, error) {
	vals := lang.NewObject()

	for _, path := range uniqueFiles(v.Files) {
		obj, err := readValues(path)
		if err != nil {
			return nil, err
		}

		for name, value := range obj.All() {
			vals.Set(name, value)
		}
	}

	for _, kv := range v.Set {
		name, value, err := parseSet(ctx, kv, store, v.options()...)
		if err != nil {
			return nil, err
		}

		vals.Set(name, value)
	}

	return vals, nil
}

// store creates a store holding the built-ins, the function library unless
// disabled, and the loaded values.
func (v *Values) store(ctx context.Context) (*lang.Store, error) {
	store := lang.NewStore()

	if v.Lib {
		if _, err := lib.Install(ctx, store); err != nil {
			return nil, err
		}
	}

	vals, err := v.load(ctx, store)
	if err != nil {
		return nil, err
	}

	c := store.SetValues(ctx, vals.Map())

	log.DebugContext(ctx, "store loaded",
		slog.Int("values", len(c.Values)),
		slog.Int("functions", len(store.FunctionNames())),
	)

	return store, nil
}

// external returns the table #-scoped steps read from.
func (v *Values) external() map[string]any {
	if !v.Env {
		return nil
	}

	return lang.Env()
}

func (v *Values) options() []lang.Option {
	opts := []lang.Option{lang.WithExternal(v.external())}

	if v.Trace {
		opts = append(opts, lang.WithLogger(log.Default()))
	}

	return opts
}

func (v *Values) binderOptions() []bind.Option {
	return []bind.Option{
		bind.WithLogger(log.Default()),
		bind.WithExternal(v.external()),
		bind.WithTrace(v.Trace),
	}
}

// parseSet parses one --set flag. The right-hand side is a literal. An
// expression literal is evaluated against the store so that
// --set 'b=@add(a, 1)' stores a number.
func parseSet(ctx context.Context, kv string, store *lang.Store, opts ...lang.Option) (string, any, error) {
	name, text, ok := strings.Cut(kv, "=")
	if name = strings.TrimSpace(name); !ok || name == "" {
		return "", nil, ErrSetFlag.With(slog.String("set", kv))
	}

	value, err := lang.ParseValue(text)
	if err != nil {
		return "", nil, ErrSetFlag.Wrap(err).With(slog.String("set", kv))
	}

	if expr, ok := value.(*lang.Expression); ok {
		value = expr.Evaluate(ctx, store, opts...)
	}

	return name, value, nil
}

// readValues decodes a values file. YAML is a superset of JSON, so one
// decoder serves both. Mapping order is preserved.
func readValues(path string) (*lang.Object, error) {
	data, err := readSource(path)
	if err != nil {
		return nil, ErrReadValues.Wrap(err).With(slog.String("path", path))
	}

	var doc any

	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, ErrReadValues.Wrap(err).With(slog.String("path", path))
	}

	if doc == nil {
		return lang.NewObject(), nil
	}

	obj, ok := fromYAML(doc).(*lang.Object)
	if !ok {
		return nil, ErrValuesMapping.With(
			slog.String("path", path),
			slog.String("type", fmt.Sprintf("%T", doc)),
		)
	}

	return obj, nil
}

// fromYAML converts decoded YAML to store values: ordered mappings become
// objects and every number becomes a float64.
func fromYAML(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		obj := lang.NewObject()

		for _, item := range v {
			obj.Set(fmt.Sprint(item.Key), fromYAML(item.Value))
		}

		return obj
	case map[string]any:
		obj := lang.ObjectOf(v)

		for name, value := range obj.All() {
			obj.Set(name, fromYAML(value))
		}

		return obj
	case []any:
		out := make([]any, len(v))

		for i, e := range v {
			out[i] = fromYAML(e)
		}

		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return v
	}
}
