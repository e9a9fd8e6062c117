package repl

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/ardnew/bindable/bind"
	"github.com/ardnew/bindable/dom"
	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

// command describes one ":" command for help and completion.
type command struct {
	name    string
	aliases []string
	args    string
	help    string
}

var commands = []command{
	{"set", nil, "NAME LITERAL", "Set a store value (expression literals are evaluated)"},
	{"get", nil, "NAME", "Print a store value"},
	{"del", nil, "NAME...", "Delete store values"},
	{"list", []string{"l"}, "", "List store values and functions"},
	{"deps", nil, "EXPR", "Print the dependencies of an expression"},
	{"render", []string{"r"}, "", "Print the bound template"},
	{"sites", nil, "", "List the bound sites"},
	{"edit", []string{"e"}, "", "Edit the template in $EDITOR"},
	{"clear", []string{"c"}, "", "Clear screen"},
	{"help", []string{"h"}, "", "Print this help"},
	{"quit", []string{"q", "exit"}, "", "Exit"},
}

// commandNames returns the primary name of every command.
func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}

	return names
}

// lookupCommand resolves a command name or alias.
func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name || slices.Contains(c.aliases, name) {
			return c, true
		}
	}

	return command{}, false
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("\nCommands:\n\n")

	for _, c := range commands {
		fmt.Fprintf(&b, "  :%-20s %s\n", strings.TrimSpace(c.name+" "+c.args), c.help)
	}

	b.WriteString(`
Usage:
  Type an expression to evaluate it against the store
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Use Up/Down arrows for history navigation
  Press Ctrl+C on empty line or Ctrl+D to exit
`)

	return b.String()
}

// Result is the outcome of one input line.
type Result struct {
	Output string
	Quit   bool
	Clear  bool
	Edit   bool
}

// Session holds a store and an optional template bound to it.
type Session struct {
	store    *lang.Store
	external map[string]any
	logger   log.Logger
	trace    bool

	template string
	root     *html.Node
	binder   *bind.Binder
	cancel   func()
}

// Option configures a [Session].
type Option func(*Session)

// WithExternal sets the table #-scoped steps read from.
func WithExternal(table map[string]any) Option {
	return func(s *Session) { s.external = table }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithTrace enables per-step evaluation records at trace level.
func WithTrace(enable bool) Option {
	return func(s *Session) { s.trace = enable }
}

// NewSession creates a session over store. A non-empty template is parsed
// as HTML and bound.
func NewSession(ctx context.Context, store *lang.Store, template string, opts ...Option) (*Session, error) {
	s := &Session{store: store}

	for _, opt := range opts {
		opt(s)
	}

	if template != "" {
		if err := s.SetTemplate(ctx, template); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// SetTemplate replaces the bound template. The previous binding stops
// receiving store changes.
func (s *Session) SetTemplate(ctx context.Context, text string) error {
	root, err := dom.Load(text)
	if err != nil {
		return err
	}

	b := bind.New(dom.Tree{}, s.store,
		bind.WithLogger(s.logger),
		bind.WithExternal(s.external),
		bind.WithTrace(s.trace),
	)

	n := b.Bind(ctx, root)

	s.Close()
	s.template, s.root, s.binder, s.cancel = text, root, b, b.Watch()

	s.logger.DebugContext(ctx, "repl template bound", slog.Int("sites", n))

	return nil
}

// Template returns the source of the bound template.
func (s *Session) Template() string { return s.template }

// Render returns the bound template rendered with current values.
func (s *Session) Render() (string, bool) {
	if s.root == nil {
		return "", false
	}

	return dom.String(s.root), true
}

// Close stops the template from receiving store changes.
func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) options() []lang.Option {
	opts := []lang.Option{lang.WithExternal(s.external)}

	if s.trace {
		opts = append(opts, lang.WithLogger(s.logger))
	}

	return opts
}

// Eval parses and evaluates an expression against the store.
func (s *Session) Eval(ctx context.Context, src string) (any, error) {
	expr, err := lang.Parse(src)
	if err != nil {
		return nil, err
	}

	return expr.Evaluate(ctx, s.store, s.options()...), nil
}

// Exec runs one line of input: a ":" command or an expression.
func (s *Session) Exec(ctx context.Context, line string) (Result, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}, nil
	}

	if rest, ok := strings.CutPrefix(line, ":"); ok {
		name, arg, _ := strings.Cut(strings.TrimSpace(rest), " ")

		return s.command(ctx, name, strings.TrimSpace(arg))
	}

	v, err := s.Eval(ctx, line)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: lang.Format(v)}, nil
}

func (s *Session) command(ctx context.Context, name, arg string) (Result, error) {
	c, ok := lookupCommand(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s (try :help)", ErrUnknownCommand, name)
	}

	s.logger.TraceContext(ctx, "repl command",
		slog.String("command", c.name),
		slog.String("args", arg),
	)

	switch c.name {
	case "quit":
		return Result{Quit: true}, nil
	case "clear":
		return Result{Clear: true}, nil
	case "edit":
		return Result{Edit: true}, nil
	case "help":
		return Result{Output: helpMessage()}, nil
	case "set":
		return s.set(ctx, arg)
	case "get":
		return s.get(arg)
	case "del":
		return s.del(ctx, arg)
	case "list":
		return Result{Output: s.list()}, nil
	case "deps":
		return s.deps(arg)
	case "render":
		out, ok := s.Render()
		if !ok {
			return Result{}, ErrNoTemplate
		}

		return Result{Output: out}, nil
	case "sites":
		return s.sites()
	}

	return Result{}, nil
}

func usage(c string) error {
	cmd, _ := lookupCommand(c)

	return fmt.Errorf("%w: :%s %s", ErrUsage, cmd.name, cmd.args)
}

// set accepts "NAME LITERAL" or "NAME=LITERAL".
func (s *Session) set(ctx context.Context, arg string) (Result, error) {
	i := strings.IndexFunc(arg, func(r rune) bool { return r == '=' || unicode.IsSpace(r) })
	if i <= 0 {
		return Result{}, usage("set")
	}

	name, text := arg[:i], strings.TrimSpace(arg[i:])
	text = strings.TrimSpace(strings.TrimPrefix(text, "="))

	v, err := lang.ParseValue(text)
	if err != nil {
		return Result{}, err
	}

	if expr, ok := v.(*lang.Expression); ok {
		v = expr.Evaluate(ctx, s.store, s.options()...)
	}

	s.store.Set(ctx, name, v)

	if out, ok := s.Render(); ok {
		return Result{Output: out}, nil
	}

	return Result{Output: name + " = " + lang.Format(v)}, nil
}

func (s *Session) get(name string) (Result, error) {
	if name == "" {
		return Result{}, usage("get")
	}

	v, ok := s.store.Value(name)
	if !ok {
		v = lang.Undefined
	}

	return Result{Output: lang.Format(v)}, nil
}

func (s *Session) del(ctx context.Context, arg string) (Result, error) {
	names := strings.Fields(arg)
	if len(names) == 0 {
		return Result{}, usage("del")
	}

	s.store.Delete(ctx, names...)

	if out, ok := s.Render(); ok {
		return Result{Output: out}, nil
	}

	return Result{}, nil
}

func (s *Session) list() string {
	var b strings.Builder

	for _, name := range s.store.ValueNames() {
		v, _ := s.store.Value(name)
		fmt.Fprintf(&b, "  %s = %s\n", name, preview(lang.Format(v)))
	}

	var fns []string

	for _, name := range s.store.FunctionNames() {
		if name != lang.PassThrough {
			fns = append(fns, "@"+name+"()")
		}
	}

	if len(fns) > 0 {
		fmt.Fprintf(&b, "  %s\n", strings.Join(fns, " "))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (s *Session) deps(src string) (Result, error) {
	if src == "" {
		return Result{}, usage("deps")
	}

	expr, err := lang.Parse(src)
	if err != nil {
		return Result{}, err
	}

	return Result{Output: fmt.Sprintf("values: %s\nfunctions: %s",
		strings.Join(expr.Values(), ", "),
		strings.Join(expr.Functions(), ", "),
	)}, nil
}

func (s *Session) sites() (Result, error) {
	if s.binder == nil {
		return Result{}, ErrNoTemplate
	}

	var b strings.Builder

	for i, site := range s.binder.Sites() {
		fmt.Fprintf(&b, "  %d %-14s values=[%s] functions=[%s]\n", i, site.Kind,
			strings.Join(site.Values, ","),
			strings.Join(site.Functions, ","),
		)
	}

	return Result{Output: strings.TrimSuffix(b.String(), "\n")}, nil
}

// preview shortens text to one line of at most 40 bytes.
func preview(text string) string {
	text, _, cut := strings.Cut(text, "\n")
	if len(text) > 40 {
		text, cut = text[:37], true
	}

	if cut {
		text += "..."
	}

	return text
}
