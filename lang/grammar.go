package lang

import (
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// cursor is an immutable position in the source. Every rule takes a cursor
// and returns the cursor following whatever it consumed, so backtracking is
// just reusing an older value.
type cursor struct{ pos int }

func (c cursor) advance(n int) cursor { return cursor{c.pos + n} }

// parser holds the state of a single parse: the source and the farthest
// failure seen so far. A parser is never shared between calls.
type parser struct {
	src     string
	silent  int
	failPos int
	expect  []string
}

func (p *parser) eof(c cursor) bool { return c.pos >= len(p.src) }

func (p *parser) peek(c cursor) byte {
	if p.eof(c) {
		return 0
	}

	return p.src[c.pos]
}

// fail records that desc would have been accepted at c. Only failures at the
// farthest position survive, and nothing is recorded inside a named rule.
func (p *parser) fail(c cursor, desc string) {
	if p.silent > 0 || c.pos < p.failPos {
		return
	}

	if c.pos > p.failPos {
		p.failPos = c.pos
		p.expect = p.expect[:0]
	}

	p.expect = append(p.expect, desc)
}

// expected returns the sorted, de-duplicated expectations.
func (p *parser) expected() []string {
	out := slices.Clone(p.expect)
	slices.Sort(out)

	return slices.Compact(out)
}

func (p *parser) syntaxError() *SyntaxError {
	return newSyntaxError(p.src, p.failPos, p.expected())
}

// named runs rule silently and reports desc in place of whatever the rule
// would have expected.
func named[T any](
	p *parser,
	c cursor,
	desc string,
	rule func(cursor) (T, cursor, bool),
) (T, cursor, bool) {
	p.silent++
	v, n, ok := rule(c)
	p.silent--

	if !ok {
		p.fail(c, desc)
	}

	return v, n, ok
}

// literal matches s exactly.
func (p *parser) literal(c cursor, s string) (cursor, bool) {
	if strings.HasPrefix(p.src[c.pos:], s) {
		return c.advance(len(s)), true
	}

	p.fail(c, strconv.Quote(s))

	return c, false
}

// keyword matches word when it is not the prefix of a longer identifier.
func (p *parser) keyword(c cursor, word string) (cursor, bool) {
	n, ok := p.literal(c, word)
	if ok && !isIdentPart(p.peek(n)) {
		return n, true
	}

	if ok {
		p.fail(c, strconv.Quote(word))
	}

	return c, false
}

// ws consumes whitespace and comments. It never records expectations.
func (p *parser) ws(c cursor) cursor {
	p.silent++
	defer func() { p.silent-- }()

	for !p.eof(c) {
		switch rest := p.src[c.pos:]; {
		case isSpace(rest[0]):
			c = c.advance(1)

		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return c
			}

			c = c.advance(2 + end + 2)

		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}

			c = c.advance(end)

		default:
			return c
		}
	}

	return c
}

// punct matches ch surrounded by optional whitespace.
func (p *parser) punct(c cursor, ch string) (cursor, bool) {
	n, ok := p.literal(p.ws(c), ch)
	if !ok {
		return c, false
	}

	return p.ws(n), true
}

func (p *parser) identifier(c cursor) (string, cursor, bool) {
	return named(p, c, "identifier", func(c cursor) (string, cursor, bool) {
		if !isIdentStart(p.peek(c)) {
			return "", c, false
		}

		n := c.advance(1)
		for !p.eof(n) && isIdentPart(p.src[n.pos]) {
			n = n.advance(1)
		}

		return p.src[c.pos:n.pos], n, true
	})
}

// radixes lists the prefixed integer forms in the order they are tried.
var radixes = [...]struct {
	prefix string
	base   int
	digit  func(byte) bool
}{
	{"0x", 16, isHexDigit},
	{"0o", 8, isOctDigit},
	{"0b", 2, isBinDigit},
}

func (p *parser) number(c cursor) (any, cursor, bool) {
	return named(p, c, "number", func(start cursor) (any, cursor, bool) {
		c, neg := start, false
		if n, ok := p.literal(c, "-"); ok {
			c, neg = n, true
		}

		for _, r := range radixes {
			n, ok := p.literal(c, r.prefix)
			if !ok {
				continue
			}

			m := p.span(n, r.digit)
			if m.pos == n.pos {
				continue
			}

			return parseInt(p.src[n.pos:m.pos], r.base, neg), m, true
		}

		n := p.span(c, isDigit)
		if n.pos == c.pos {
			return nil, start, false
		}

		if d, ok := p.literal(n, "."); ok {
			if m := p.span(d, isDigit); m.pos > d.pos {
				n = m
			}
		}

		if e := p.peek(n); e == 'e' || e == 'E' {
			d := n.advance(1)
			if s := p.peek(d); s == '+' || s == '-' {
				d = d.advance(1)
			}

			if m := p.span(d, isDigit); m.pos > d.pos {
				n = m
			}
		}

		// ErrRange still yields the correctly rounded value (±Inf or 0).
		f, _ := strconv.ParseFloat(p.src[start.pos:n.pos], 64)

		return f, n, true
	})
}

// span consumes the longest run of bytes matching pred.
func (p *parser) span(c cursor, pred func(byte) bool) cursor {
	for !p.eof(c) && pred(p.src[c.pos]) {
		c = c.advance(1)
	}

	return c
}

// parseInt converts prefixed digits to int64, falling back to float64 when
// the magnitude does not fit.
func parseInt(digits string, base int, neg bool) any {
	if neg {
		digits = "-" + digits
	}

	if i, err := strconv.ParseInt(digits, base, 64); err == nil {
		return i
	}

	b, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}

	f, _ := new(big.Float).SetInt(b).Float64()

	return f
}

func (p *parser) str(c cursor) (string, cursor, bool) {
	return named(p, c, "string", func(c cursor) (string, cursor, bool) {
		start := c

		q := p.peek(c)
		if q != '"' && q != '\'' && q != '`' {
			return "", start, false
		}

		var sb strings.Builder

		c = c.advance(1)

		for !p.eof(c) {
			switch ch := p.src[c.pos]; {
			case ch == q:
				return sb.String(), c.advance(1), true

			case ch == '\\':
				s, n, ok := p.escape(c)
				if !ok {
					return "", start, false
				}

				sb.WriteString(s)

				c = n

			case ch < 0x20:
				return "", start, false

			default:
				_, size := utf8.DecodeRuneInString(p.src[c.pos:])
				sb.WriteString(p.src[c.pos : c.pos+size])

				c = c.advance(size)
			}
		}

		return "", start, false
	})
}

var simpleEscapes = map[byte]string{
	'\\': "\\",
	'"':  "\"",
	'\'': "'",
	'`':  "`",
	'b':  "\b",
	'f':  "\f",
	'n':  "\n",
	'r':  "\r",
	't':  "\t",
	'\n': "",
	'\t': "",
}

// escape decodes one backslash sequence inside a string.
func (p *parser) escape(c cursor) (string, cursor, bool) {
	return named(p, c, "escape sequence", func(c cursor) (string, cursor, bool) {
		n, ok := p.literal(c, `\`)
		if !ok || p.eof(n) {
			return "", c, false
		}

		ch := p.src[n.pos]
		if s, ok := simpleEscapes[ch]; ok {
			return s, n.advance(1), true
		}

		switch {
		case isOctDigit(ch):
			end := p.digits(n, 3, isOctDigit)

			return decodeRune(p.src[n.pos:end.pos], 8), end, true

		case ch == 'x':
			start := n.advance(1)

			end := p.digits(start, 2, isHexDigit)
			if end.pos == start.pos {
				return "", c, false
			}

			return decodeRune(p.src[start.pos:end.pos], 16), end, true

		case ch == 'u':
			start := n.advance(1)

			end := p.digits(start, 4, isHexDigit)
			if end.pos-start.pos != 4 {
				return "", c, false
			}

			return decodeRune(p.src[start.pos:end.pos], 16), end, true
		}

		return "", c, false
	})
}

// digits consumes up to limit bytes matching pred.
func (p *parser) digits(c cursor, limit int, pred func(byte) bool) cursor {
	end := c
	for end.pos-c.pos < limit && pred(p.peek(end)) {
		end = end.advance(1)
	}

	return end
}

func decodeRune(digits string, base int) string {
	v, _ := strconv.ParseUint(digits, base, 32)

	return string(rune(v))
}

func (p *parser) regex(c cursor) (Regex, cursor, bool) {
	n, ok := p.literal(c, "/")
	if !ok {
		return Regex{}, c, false
	}

	var body strings.Builder

	for {
		if ch := p.peek(n); !p.eof(n) && ch >= 0x20 && ch != '\\' && ch != '/' {
			_, size := utf8.DecodeRuneInString(p.src[n.pos:])
			body.WriteString(p.src[n.pos : n.pos+size])

			n = n.advance(size)

			continue
		}

		p.fail(n, `[^\0-\x1F\\/]`)

		s, m, ok := p.regexEscape(n)
		if !ok {
			break
		}

		body.WriteString(s)

		n = m
	}

	n, ok = p.literal(n, "/")
	if !ok {
		return Regex{}, c, false
	}

	flags := n
	for strings.IndexByte("iumg", p.peek(n)) >= 0 && !p.eof(n) {
		n = n.advance(1)
	}

	p.fail(n, "[iumg]")

	return Regex{Pattern: body.String(), Flags: p.src[flags.pos:n.pos]}, n, true
}

// regexEscape keeps a backslash sequence verbatim so the regular expression
// engine sees it unchanged.
func (p *parser) regexEscape(c cursor) (string, cursor, bool) {
	return named(p, c, "escape sequence", func(c cursor) (string, cursor, bool) {
		n, ok := p.literal(c, `\`)
		if !ok || p.eof(n) || p.src[n.pos] < 0x20 {
			return "", c, false
		}

		_, size := utf8.DecodeRuneInString(p.src[n.pos:])

		return p.src[c.pos : n.pos+size], n.advance(size), true
	})
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isOctDigit(c byte) bool { return '0' <= c && c <= '7' }

func isBinDigit(c byte) bool { return c == '0' || c == '1' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
