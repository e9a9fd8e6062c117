package lib

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/ardnew/bindable/lang"
)

var functions = sync.OnceValue(func() map[string]lang.Function {
	return map[string]lang.Function{
		"markdown": markdown,
		"upper":    upper,
		"lower":    lower,
		"title":    title,
		"date":     date,
		"match":    match,
		"replace":  replace,
		"json":     toJSON,
		"yaml":     toYAML,
	}
})

// Functions returns a fresh copy of the library's function table.
func Functions() map[string]lang.Function {
	return maps.Clone(functions())
}

// Install adds every library function to store, replacing functions of the
// same name, and returns the merged change.
func Install(ctx context.Context, store *lang.Store) (lang.Change, error) {
	var c lang.Change

	fns := functions()

	for _, name := range slices.Sorted(maps.Keys(fns)) {
		ch, err := store.SetFunc(ctx, name, fns[name])
		if err != nil {
			return c, err
		}

		c = c.Merge(ch)
	}

	return c, nil
}

// text returns the i-th argument as a string. Null, undefined, and missing
// arguments report false.
func text(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}

	switch v := args[i].(type) {
	case nil, lang.UndefinedType:
		return "", false
	case string:
		return v, true
	default:
		return lang.Stringify(v), true
	}
}
