package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds     = errors.New("index out of range")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUsage           = errors.New("usage")
	ErrNoTemplate      = errors.New("no template bound")
	ErrEditorCancelled = errors.New("edit cancelled")
)
