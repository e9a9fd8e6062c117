package lang

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"math"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// UndefinedType is the type of [Undefined].
type UndefinedType struct{}

// Undefined is the value of anything absent: a missing name, a missing
// property, or the result of an expression that faulted. It is distinct
// from nil, which is the value of the null literal.
var Undefined = UndefinedType{}

func (UndefinedType) String() string { return "undefined" }

// MarshalJSON encodes Undefined as null.
func (UndefinedType) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalYAML encodes Undefined as null.
func (UndefinedType) MarshalYAML() (any, error) { return nil, nil }

// IsUndefined reports whether v is [Undefined].
func IsUndefined(v any) bool {
	_, ok := v.(UndefinedType)

	return ok
}

// Regex is a regular expression literal. Pattern is kept verbatim and only
// compiled when used.
type Regex struct {
	Pattern string
	Flags   string
}

func (r Regex) String() string { return "/" + r.Pattern + "/" + r.Flags }

// Global reports whether the g flag is set.
func (r Regex) Global() bool { return strings.ContainsRune(r.Flags, 'g') }

// Compile compiles the pattern with RE2 syntax. The i and m flags map to
// the equivalent inline flags; u and g have no effect on compilation.
func (r Regex) Compile() (*regexp.Regexp, error) {
	var inline strings.Builder

	for _, f := range "im" {
		if strings.ContainsRune(r.Flags, f) {
			inline.WriteRune(f)
		}
	}

	pattern := r.Pattern
	if inline.Len() > 0 {
		pattern = "(?" + inline.String() + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, ErrOperand.Wrap(err)
	}

	return re, nil
}

// MarshalJSON encodes the regex as its literal text.
func (r Regex) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

// MarshalYAML encodes the regex as its literal text.
func (r Regex) MarshalYAML() (any, error) { return r.String(), nil }

// Object is a string-keyed map that remembers insertion order.
// Setting an existing key keeps its original position.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// ObjectOf returns an Object holding the entries of m in sorted key order.
func ObjectOf(m map[string]any) *Object {
	o := NewObject()

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		o.Set(k, m[k])
	}

	return o
}

// Set stores v under key and returns the receiver.
func (o *Object) Set(key string, v any) *Object {
	if o.vals == nil {
		o.vals = make(map[string]any)
	}

	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.vals[key] = v

	return o
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}

	v, ok := o.vals[key]

	return v, ok
}

// Len returns the number of entries.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	return slices.Clone(o.keys)
}

// All iterates over the entries in insertion order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil {
			return
		}

		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// Map returns the entries as a plain map.
func (o *Object) Map() map[string]any {
	m := make(map[string]any, o.Len())
	for k, v := range o.All() {
		m[k] = v
	}

	return m
}

// MarshalJSON encodes the entries in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	i := 0
	for k, v := range o.All() {
		if i > 0 {
			buf.WriteByte(',')
		}

		i++

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		val, err := marshalJSON(v)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML encodes the entries in insertion order.
func (o *Object) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, o.Len())
	for k, v := range o.All() {
		ms = append(ms, yaml.MapItem{Key: k, Value: v})
	}

	return ms, nil
}

// Equal reports whether a and b hold the same value. Numbers compare by
// value regardless of Go type, and Objects compare without regard to order.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)

		return ok && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}

	switch a := a.(type) {
	case nil:
		return b == nil
	case UndefinedType:
		return IsUndefined(b)
	case []any:
		b, ok := b.([]any)
		if !ok || len(a) != len(b) {
			return false
		}

		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}

		return true
	case *Object:
		b, ok := b.(*Object)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for k, va := range a.All() {
			vb, ok := b.Get(k)
			if !ok || !Equal(va, vb) {
				return false
			}
		}

		return true
	case *Expression:
		b, ok := b.(*Expression)

		return ok && a.String() == b.String()
	}

	return reflect.DeepEqual(a, b)
}

// Truthy reports whether v counts as true in a condition. The false values
// are false, nil, Undefined, zero, NaN, and the empty string.
func Truthy(v any) bool {
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}

	switch v := v.(type) {
	case nil, UndefinedType:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}

	return true
}

// Stringify converts v to the text it renders as.
func Stringify(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case nil:
		return "null"
	case UndefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case Regex:
		return v.String()
	case *Expression:
		return v.String()
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}

	if s, ok := formatNumber(v); ok {
		return s
	}

	b, err := marshalJSON(v)
	if err != nil {
		return fmt.Sprint(v)
	}

	return string(b)
}

// formatNumber renders numbers the way a browser prints them: integral
// values without exponent up to 1e21, NaN, and signed Infinity.
func formatNumber(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", false
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
	default:
		return "", false
	}

	f := rv.Float()

	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}

	if abs := math.Abs(f); abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")

	return mant + "e" + sign + digits, true
}

// Format renders v as literal source text that [ParseValue] reads back as
// an equal value. Values with no literal form, NaN among them, are rendered
// as strings.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case UndefinedType:
		return "undefined"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return Quote(v)
	case Regex:
		return v.String()
	case *Expression:
		return v.String()
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = Format(item)
		}

		return "[" + strings.Join(items, ", ") + "]"
	case *Object:
		items := make([]string, 0, v.Len())
		for k, item := range v.All() {
			items = append(items, Quote(k)+": "+Format(item))
		}

		return "{" + strings.Join(items, ", ") + "}"
	}

	if f, ok := v.(float64); ok {
		switch {
		case math.IsInf(f, 1):
			return "1e999"
		case math.IsInf(f, -1):
			return "-1e999"
		case math.IsNaN(f):
			return Quote(Stringify(f))
		default:
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	}

	// Integers a float64 cannot hold exactly keep their value in hex.
	if rv := reflect.ValueOf(v); isInteger(v) {
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := rv.Int(); n > 1<<53 || n < -(1<<53) {
				if n < 0 {
					return "-0x" + strconv.FormatUint(uint64(-n), 16)
				}

				return "0x" + strconv.FormatUint(uint64(n), 16)
			}
		default:
			if n := rv.Uint(); n > 1<<53 {
				return "0x" + strconv.FormatUint(n, 16)
			}
		}
	}

	if s, ok := formatNumber(v); ok {
		return s
	}

	return Quote(Stringify(v))
}

// Quote returns s as a double-quoted string literal using only the escapes
// the grammar accepts. A slash after an asterisk is escaped so the literal
// never closes a surrounding block comment.
func Quote(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '/':
			if i > 0 && s[i-1] == '*' {
				b.WriteString(`\x2f`)

				continue
			}

			b.WriteByte(c)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				b.WriteString(`\x`)
				b.WriteString(strconv.FormatUint(uint64(c)>>4, 16))
				b.WriteString(strconv.FormatUint(uint64(c)&0xF, 16))

				continue
			}

			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// jsonable replaces values encoding/json cannot represent with the text a
// browser would print for them.
func jsonable(v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonable(item)
		}

		return out
	case *Object:
		out := NewObject()
		for k, item := range v.All() {
			out.Set(k, jsonable(item))
		}

		return out
	case *Expression:
		return v.String()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	case error:
		return v.Error()
	}

	return v
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(jsonable(v)); err != nil {
		return nil, ErrOperand.Wrap(err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	default:
		return 0, false
	}
}

func isInteger(v any) bool {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return false
	}

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}
