package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/bindable/log"
)

// editDoneMsg is sent when template editing completes successfully.
type editDoneMsg struct{ template string }

// editErrorMsg is sent when the edit process encounters an error.
type editErrorMsg struct{ err error }

const prompt = "➜ "

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the command echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *Session
	logger     log.Logger
	history    *History
	historyIdx int
	comp       completion
	width      int
	quitting   bool
}

// Run starts an interactive session. History persists in cacheDir unless it
// is empty.
func Run(
	ctx context.Context,
	session *Session,
	cacheDir string,
	logger log.Logger,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	defer session.Close()

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_template", session.Template() != ""),
	)

	var path string
	if cacheDir != "" {
		path = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	p := tea.NewProgram(newModel(ctx, session, history, logger), tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		comp:       newCompletion(),
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil

	case editDoneMsg:
		if err := m.session.SetTemplate(m.ctxFunc(), msg.template); err != nil {
			return m, tea.Println(errorStyle.Render("error: " + err.Error()))
		}

		out, _ := m.session.Render()

		return m, tea.Println(resultStyle.Render(out))

	case editErrorMsg:
		if errors.Is(msg.err, ErrEditorCancelled) {
			return m, tea.Println(hintStyle.Render("edit cancelled"))
		}

		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	funcCall := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type an expression, or :help for commands"))

	case funcCall.inCall:
		if signature, params := getSignature(funcCall.name); signature != "" {
			b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))
		} else {
			b.WriteString(m.candidateBar())
		}

	default:
		b.WriteString(m.candidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) candidateBar() string {
	return m.comp.bar(m.width, m.session.isFunction)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.historyIdx = m.history.Len()
		m.comp.stop()

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() != "" {
			return m, nil
		}

		m.quitting = true

		return m, tea.Quit

	case tea.KeyEnter:
		if m.comp.cycling {
			// Keep the selected candidate without executing.
			m.refresh(true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		m.cycle(1)

		return m, nil

	case tea.KeyShiftTab:
		m.cycle(-1)

		return m, nil

	case tea.KeyUp:
		m.historyMove(-1)

		return m, nil

	case tea.KeyDown:
		m.historyMove(1)

		return m, nil

	case tea.KeyEsc:
		if m.comp.cycling {
			m.input.SetValue(m.comp.savedText)
			m.input.SetCursor(m.comp.savedCursor)
			m.refresh(false)
		}

		return m, nil
	}

	// A space ends cycling and keeps the candidate; other edits discard it.
	typed := msg.Type == tea.KeyRunes
	if !typed || msg.String() == " " {
		m.comp.cycling = false
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refresh(typed)

	return m, cmd
}

// cycle completes the word at the cursor with the next candidate in
// direction dir. A lone candidate is inserted outright.
func (m *model) cycle(dir int) {
	switch len(m.comp.matches) {
	case 0:
		return
	case 1:
		m.replaceWord(m.comp.matches[0].Str)
		m.comp.stop()

		return
	}

	if !m.comp.cycling {
		m.comp.savedText, m.comp.savedCursor = m.input.Value(), m.input.Position()
	}

	m.replaceWord(m.comp.next(dir))
}

// replaceWord replaces the word being completed and moves the cursor to its
// end.
func (m *model) replaceWord(word string) {
	input := m.input.Value()
	cursor := m.comp.start + len(word)

	m.input.SetValue(input[:m.comp.start] + word + input[m.comp.end:])
	m.input.SetCursor(cursor)

	m.comp.end = cursor
}

// refresh recomputes the matches for the current input. With confirm set,
// a lone candidate that already equals the typed word is accepted and the
// bar is cleared.
func (m *model) refresh(confirm bool) {
	m.comp.matches, m.comp.start, m.comp.end = m.computeMatches()

	if confirm {
		m.comp.cycling = false
	}

	if !m.comp.cycling {
		m.comp.selected = -1
	}

	if confirm && len(m.comp.matches) == 1 &&
		m.input.Value()[m.comp.start:m.comp.end] == m.comp.matches[0].Str {
		m.comp.stop()
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.comp.stop()

	_, _ = m.history.Write(input)
	m.historyIdx = m.history.Len()

	echoCmd := tea.Println(formatCommand(input))

	res, err := m.session.Exec(m.ctxFunc(), input)
	if err != nil {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl exec failed",
			slog.String("input", input),
			slog.String("error", err.Error()),
		)

		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	switch {
	case res.Quit:
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)

	case res.Clear:
		return m, tea.ClearScreen

	case res.Edit:
		return m, tea.Sequence(echoCmd, m.handleEdit())

	case res.Output == "":
		return m, echoCmd
	}

	return m, tea.Sequence(echoCmd, tea.Println(resultStyle.Render(res.Output)))
}

func (m model) handleEdit() tea.Cmd {
	cmd := &editTemplateCommand{
		template: m.session.Template(),
		ctxFunc:  m.ctxFunc,
		logger:   m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if err != nil {
			return editErrorMsg{err: err}
		}

		return editDoneMsg{template: cmd.edited}
	})
}

// historyMove steps through history; moving past the newest entry clears
// the input.
func (m *model) historyMove(dir int) {
	idx := m.historyIdx + dir
	if idx < 0 {
		return
	}

	m.historyIdx = min(idx, m.history.Len())

	line, err := m.history.Get(m.historyIdx)
	if err != nil {
		line = ""
	}

	m.input.SetValue(line)
	m.input.SetCursor(len(line))
	m.refresh(false)
}
