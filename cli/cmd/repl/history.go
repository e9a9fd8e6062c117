package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// maxHistory bounds the number of entries kept, oldest dropped first.
const maxHistory = 1000

// History is the list of entered lines, oldest first, optionally persisted
// to a file one line per entry. Entering a line again moves it to the end.
type History struct {
	path    string
	entries []string
	mu      sync.RWMutex
}

// NewHistory returns a history persisted at path. An empty path keeps
// history in memory only.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those in the history file. A missing file
// is an empty history.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}

	defer f.Close()

	var entries []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = appendUnique(entries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	h.entries = entries

	return nil
}

// Write records entry and persists the history. It returns the length of
// the recorded entry.
func (h *History) Write(entry string) (int, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return len(entry), nil
	}

	moved := slices.Contains(h.entries, entry)
	trimmed := len(h.entries) >= maxHistory

	h.entries = appendUnique(h.entries, entry)

	if h.path == "" {
		return len(entry), nil
	}

	// Appending suffices unless an earlier line disappeared.
	if moved || trimmed {
		return len(entry), h.save()
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, err
	}

	defer f.Close()

	if _, err := f.WriteString(entry + "\n"); err != nil {
		return 0, err
	}

	return len(entry), nil
}

// Get returns the entry at index i, where 0 is the oldest.
func (h *History) Get(i int) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return "", ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// save replaces the history file through a temporary file in the same
// directory. h.mu must be held.
func (h *History) save() error {
	tmp, err := os.CreateTemp(filepath.Dir(h.path), baseHistory+".*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, entry := range h.entries {
		_, _ = w.WriteString(entry + "\n")
	}

	err = w.Flush()
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), h.path)
}

// appendUnique appends entry after removing any earlier copy, then drops
// the oldest entries beyond maxHistory.
func appendUnique(entries []string, entry string) []string {
	if i := slices.Index(entries, entry); i >= 0 {
		entries = slices.Delete(entries, i, i+1)
	}

	entries = append(entries, entry)

	if over := len(entries) - maxHistory; over > 0 {
		entries = slices.Delete(entries, 0, over)
	}

	return entries
}
