package lib

import (
	"log/slog"
	"regexp"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ardnew/bindable/lang"
)

func upper(args ...any) (any, error) {
	s, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	return cases.Upper(language.Und).String(s), nil
}

func lower(args ...any) (any, error) {
	s, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	return cases.Lower(language.Und).String(s), nil
}

// title capitalizes words using the rules of an optional BCP 47 language
// tag, English by default.
func title(args ...any) (any, error) {
	s, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	tag := language.English

	if name, ok := text(args, 1); ok {
		t, err := language.Parse(name)
		if err != nil {
			return nil, lang.ErrOperand.Wrap(err).With(slog.String("language", name))
		}

		tag = t
	}

	return cases.Title(tag).String(s), nil
}

// pattern converts a regex or string argument into a regex. A string
// matches literally.
func pattern(args []any, i int) (lang.Regex, bool) {
	if i >= len(args) {
		return lang.Regex{}, false
	}

	switch v := args[i].(type) {
	case lang.Regex:
		return v, true
	case string:
		return lang.Regex{Pattern: regexp.QuoteMeta(v)}, true
	default:
		return lang.Regex{}, false
	}
}

// match returns every match of a global regex, or the groups of the first
// match otherwise. No match is null.
func match(args ...any) (any, error) {
	s, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	r, ok := pattern(args, 1)
	if !ok {
		return nil, lang.ErrOperand.With(slog.String("func", "match"))
	}

	re, err := r.Compile()
	if err != nil {
		return nil, err
	}

	if r.Global() {
		all := re.FindAllString(s, -1)
		if all == nil {
			return nil, nil
		}

		return anySlice(all), nil
	}

	groups := re.FindStringSubmatch(s)
	if groups == nil {
		return nil, nil
	}

	return anySlice(groups), nil
}

// replace substitutes every match of a global regex, or the first match
// otherwise. $1 and ${name} in the replacement expand capture groups.
func replace(args ...any) (any, error) {
	s, ok := text(args, 0)
	if !ok {
		return lang.Undefined, nil
	}

	r, ok := pattern(args, 1)
	if !ok {
		return nil, lang.ErrOperand.With(slog.String("func", "replace"))
	}

	with, _ := text(args, 2)

	re, err := r.Compile()
	if err != nil {
		return nil, err
	}

	if r.Global() {
		return re.ReplaceAllString(s, with), nil
	}

	loc := re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, nil
	}

	dst := re.ExpandString(nil, with, s, loc)

	return s[:loc[0]] + string(dst) + s[loc[1]:], nil
}

func anySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}

	return out
}
