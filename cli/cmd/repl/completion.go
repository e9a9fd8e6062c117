package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// completion is the state of the candidate bar: the ranked matches for the
// word under the cursor and, while the user presses Tab, the selection.
type completion struct {
	matches fuzzy.Matches

	// Byte offsets of the word being completed.
	start, end int

	// Index into matches while cycling, -1 otherwise.
	selected int
	cycling  bool

	// Input and cursor before cycling began, restored by Esc.
	savedText   string
	savedCursor int
}

func newCompletion() completion { return completion{selected: -1} }

// stop ends cycling and forgets the matches.
func (c *completion) stop() {
	c.matches = nil
	c.cycling = false
	c.selected = -1
}

// next advances the selection by dir, wrapping around, and returns the
// selected candidate. The first step from rest selects the first or last
// match.
func (c *completion) next(dir int) string {
	n := len(c.matches)

	switch {
	case c.cycling:
		c.selected = (c.selected + dir + n) % n
	case dir > 0:
		c.selected = 0
	default:
		c.selected = n - 1
	}

	c.cycling = true

	return c.matches[c.selected].Str
}

// find ranks candidates against word. An empty word lists every candidate
// only when listAll is set.
func find(word string, candidates []string, listAll bool) fuzzy.Matches {
	if len(candidates) == 0 {
		return nil
	}

	if word != "" {
		return fuzzy.Find(word, candidates)
	}

	if !listAll {
		return nil
	}

	matches := make(fuzzy.Matches, len(candidates))
	for i, c := range candidates {
		matches[i] = fuzzy.Match{Str: c, Index: i}
	}

	return matches
}

// computeMatches ranks the completion candidates for the word at the cursor
// and returns them with the word's bounds. An empty word lists candidates
// only right after a dot or sigil, so the hint line stays visible elsewhere.
func (m model) computeMatches() (fuzzy.Matches, int, int) {
	input := m.input.Value()

	word, start, end := wordBounds(input, m.input.Position())
	afterSigil := start > 0 && strings.ContainsRune(".@#", rune(input[start-1]))

	candidates := m.session.candidates(m.ctxFunc(), input, start)

	return find(word, candidates, afterSigil), start, end
}

// bar renders the matches on one line, ellipsized to width. Matched
// characters are highlighted and the selection is inverted.
func (c completion) bar(width int, isFunction func(string) bool) string {
	if len(c.matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range c.matches {
		rendered := renderCandidate(match, c.cycling && i == c.selected, isFunction(match.Str))

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)

			if used+w+reserve > width {
				b.WriteString(sep)
				b.WriteString(ellipsis)

				break
			}

			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

var (
	matchStyle         = suggestionStyle.Bold(true)
	selectedMatchStyle = selectedStyle.Bold(true)
)

// renderCandidate renders one candidate with its matched characters
// highlighted. Functions get a "()" suffix that completion does not insert.
func renderCandidate(match fuzzy.Match, selected, function bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if function {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
