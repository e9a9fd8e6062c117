package repl

import (
	"context"
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/bindable/lang"
)

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes: whitespace, the member-access dot, scope sigils, and literal
// punctuation.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'@', '#', ',', ':', '=',
		'"', '\'', '/':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input.
// Returns an empty word when the cursor sits on a boundary (after a space,
// between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	// Walk backward from cursor to find word start.
	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	// Walk forward from cursor to find word end.
	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the property chain leading up to the current word,
// including its scope sigil. For input "x, #path.ab" with the word "ab",
// the parent path is "#path". Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix, ok := strings.CutSuffix(input[:wordStart], ".")
	if !ok || prefix == "" {
		return ""
	}

	// Walk backward collecting dots and identifier characters, stopping at
	// the first other word boundary.
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	if pos > 0 {
		if r, size := utf8.DecodeLastRuneInString(prefix[:pos]); r == '@' || r == '#' {
			pos -= size
		}
	}

	return prefix[pos:]
}

// sigilBefore returns the scope sigil immediately before the word, or 0.
func sigilBefore(input string, wordStart int) rune {
	if wordStart == 0 {
		return 0
	}

	switch r, _ := utf8.DecodeLastRuneInString(input[:wordStart]); r {
	case '@', '#':
		return r
	}

	return 0
}

// storeNames returns the value and function names of the store, without the
// internal pass-through built-in.
func (s *Session) storeNames() []string {
	names := s.store.ValueNames()

	for _, name := range s.store.FunctionNames() {
		if name != lang.PassThrough {
			names = append(names, name)
		}
	}

	return names
}

// isFunction reports whether name is a store function.
func (s *Session) isFunction(name string) bool {
	_, ok := s.store.Function(name)

	return ok
}

// candidates returns the names that may complete the word starting at
// wordStart.
func (s *Session) candidates(ctx context.Context, input string, wordStart int) []string {
	if rest, ok := strings.CutPrefix(input, ":"); ok {
		head := strings.TrimLeft(rest[:max(wordStart-1, 0)], " \t")
		name, args, hasArgs := strings.Cut(head, " ")

		switch {
		case !hasArgs:
			return commandNames()
		case name == "get" || name == "del":
			return s.store.ValueNames()
		case name == "set" && !strings.ContainsAny(strings.TrimSpace(args), " ="):
			return s.store.ValueNames()
		case name != "set" && name != "deps":
			return nil
		}
	}

	if parent := parentPath(input, wordStart); parent != "" {
		v, err := s.Eval(ctx, parent)
		if err != nil {
			return nil
		}

		return keysOf(v)
	}

	switch sigilBefore(input, wordStart) {
	case '#':
		return slices.Sorted(maps.Keys(s.external))
	default:
		return s.storeNames()
	}
}

// keysOf lists the property names of a value: object and map keys, or the
// exported fields of a struct.
func keysOf(v any) []string {
	if obj, ok := v.(*lang.Object); ok {
		return obj.Keys()
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	var keys []string

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}

		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

	case reflect.Struct:
		for _, f := range reflect.VisibleFields(rv.Type()) {
			if f.IsExported() && !f.Anonymous {
				keys = append(keys, f.Name)
			}
		}
	}

	return keys
}
