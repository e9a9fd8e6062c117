package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/bindable/lang"
)

// signatures holds the parameter lists of the built-in and library
// functions. A "?" suffix marks an optional parameter.
var signatures = map[string][]string{
	"join": {"sep", "...items"},
	"add":  {"...operands"},
	"mul":  {"...operands"},
	"sub":  {"a", "b"},
	"div":  {"a", "b"},
	"mod":  {"a", "b"},
	"pow":  {"base", "exp"},
	"cond": {"test", "then", "else"},

	"markdown": {"source"},
	"upper":    {"text"},
	"lower":    {"text"},
	"title":    {"text", "lang?"},
	"date":     {"value", "layout?", "locale?"},
	"match":    {"text", "pattern"},
	"replace":  {"text", "pattern", "replacement"},
	"json":     {"value", "indent?"},
	"yaml":     {"value"},
}

// SignatureNames returns the sorted names of the functions with known
// signatures.
func SignatureNames() []string {
	return slices.Sorted(maps.Keys(signatures))
}

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // callee as written, e.g. "@add" or "#path.cat"
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// isNameRune reports whether r may appear in a callee chain.
func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '$' || r == '@' || r == '#' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	// Scan backward from cursor to find the unmatched opening paren.
	depth := 0
	open := -1

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	start := open

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := calleeName(input[start:open])
	if name == "" {
		return functionCall{}
	}

	// Count arguments by counting commas at depth 0 in the parameter list
	argIndex := 0
	depth = 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// calleeName extracts the last step of a chain, keeping a whole
// #-scoped path since external names may be nested.
func calleeName(chain string) string {
	if i := strings.LastIndexByte(chain, '#'); i >= 0 {
		return chain[i:]
	}

	if i := strings.LastIndexByte(chain, '.'); i >= 0 {
		return chain[i+1:]
	}

	return chain
}

// getSignature returns the signature and parameter names of the named
// function, or an empty signature if it is unknown.
func getSignature(name string) (signature string, params []string) {
	if path, ok := strings.CutPrefix(name, "#"); ok {
		sig, params, _ := externalSignature(path)

		return sig, params
	}

	name = strings.TrimPrefix(name, "@")
	if params, ok := signatures[name]; ok {
		return "@" + name + "(" + strings.Join(params, ", ") + ")", params
	}

	return "", nil
}

// externalSignature uses reflection to describe a function of the external
// table, e.g. "path.cat". Returns (signature, params, true) if found.
func externalSignature(path string) (string, []string, bool) {
	var current any = lang.Env()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", nil, false
		}

		if current, ok = m[seg]; !ok {
			return "", nil, false
		}
	}

	t := reflect.TypeOf(current)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	params := make([]string, t.NumIn())

	for i := range params {
		if t.IsVariadic() && i == len(params)-1 {
			params[i] = "..." + formatTypeName(t.In(i).Elem())
		} else {
			params[i] = formatTypeName(t.In(i))
		}
	}

	return "#" + path + "(" + strings.Join(params, ", ") + ")", params, true
}

// formatTypeName converts a reflect.Type to a readable parameter name.
// Examples: "string", "int", "bool", "func".
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Bool:
		return "bool"
	case reflect.Slice:
		return "slice"
	case reflect.Map:
		return "map"
	case reflect.Ptr:
		return formatTypeName(t.Elem())
	default:
		// Fallback to the type's name if available
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	name, _, ok := strings.Cut(signature, "(")
	if !ok {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// For variadic parameters, highlight if we're at or beyond that index
		isVariadic := strings.HasPrefix(param, "...")

		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
