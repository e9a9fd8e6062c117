package cmd

import (
	"context"

	"github.com/ardnew/bindable/cli/cmd/repl"
	"github.com/ardnew/bindable/log"
)

// Repl starts an interactive session over a store and an optional template.
type Repl struct {
	Values `embed:""`

	Template string `arg:"" help:"HTML template file to bind" optional:"" type:"existingfile"`
	History  bool   `default:"true" help:"Persist input history in the cache directory." negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	store, err := r.store(ctx)
	if err != nil {
		return err
	}

	var text string

	if r.Template != "" {
		if text, err = readTemplate(r.Template); err != nil {
			return err
		}
	}

	session, err := repl.NewSession(ctx, store, text,
		repl.WithExternal(r.external()),
		repl.WithLogger(log.Default()),
		repl.WithTrace(r.Trace),
	)
	if err != nil {
		return err
	}

	var cacheDir string

	if ktx := kongContextFrom(ctx); r.History && ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, session, cacheDir, log.Default())
}
