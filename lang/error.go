package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Predefined errors (sentinel values).
var (
	ErrSyntax       = NewError("syntax error")
	ErrUnterminated = NewError("unterminated expression")
	ErrNotCallable  = NewError("not callable")
	ErrEvaluate     = NewError("evaluation failed")
	ErrDeferred     = NewError("deferred value rejected")
	ErrArity        = NewError("wrong number of arguments")
	ErrOperand      = NewError("invalid operand")
	ErrReadInput    = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error with the same message, so errors
// derived from a sentinel through Wrap or With still match it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return e.msg != "" && e.msg == t.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// Position is a location in source text. Line and Column are 1-based and
// Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Location is the half-open source range a diagnostic refers to.
type Location struct {
	Start Position
	End   Position
}

// SyntaxError reports the farthest position the parser reached and every
// alternative it would have accepted there.
type SyntaxError struct {
	Expected []string
	Found    string
	AtEnd    bool
	Location Location
	Source   string
}

func newSyntaxError(src string, pos int, expected []string) *SyntaxError {
	e := &SyntaxError{
		Expected: expected,
		Source:   src,
	}

	start := position(src, pos)
	end := start

	if pos >= len(src) {
		e.AtEnd = true
	} else {
		r, size := utf8.DecodeRuneInString(src[pos:])
		e.Found = string(r)
		end = Position{Offset: pos + size, Line: start.Line, Column: start.Column + 1}

		if r == '\n' {
			end.Line, end.Column = start.Line+1, 1
		}
	}

	e.Location = Location{Start: start, End: end}

	return e
}

func position(src string, offset int) Position {
	p := Position{Offset: offset, Line: 1, Column: 1}

	for _, r := range src[:min(offset, len(src))] {
		if r == '\n' {
			p.Line++
			p.Column = 1

			continue
		}

		p.Column++
	}

	return p
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder

	b.WriteString("Expected ")

	switch n := len(e.Expected); n {
	case 0:
		b.WriteString("end of input")
	case 1:
		b.WriteString(e.Expected[0])
	case 2:
		b.WriteString(e.Expected[0] + " or " + e.Expected[1])
	default:
		b.WriteString(strings.Join(e.Expected[:n-1], ", "))
		b.WriteString(", or " + e.Expected[n-1])
	}

	b.WriteString(" but ")

	if e.AtEnd {
		b.WriteString("end of input")
	} else {
		b.WriteString(strconv.Quote(e.Found))
	}

	b.WriteString(" found.")

	return b.String()
}

// Unwrap lets errors.Is match [ErrSyntax].
func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Error()),
		slog.Int("line", e.Location.Start.Line),
		slog.Int("column", e.Location.Start.Column),
		slog.Any("expected", e.Expected),
	)
}

// Snippet renders the offending source line with a caret under the failure
// column.
func (e *SyntaxError) Snippet() string {
	lines := strings.Split(e.Source, "\n")
	ln := e.Location.Start.Line

	if ln < 1 || ln > len(lines) {
		return ""
	}

	var src strings.Builder

	num := strconv.Itoa(ln)

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(lines[ln-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(num)+5)
	if c := e.Location.Start.Column; c > 0 {
		padding += strings.Repeat(" ", c-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}
