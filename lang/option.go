package lang

import "github.com/ardnew/bindable/log"

// Option configures evaluation and splitting.
type Option func(*options)

type options struct {
	logger   log.Logger
	external map[string]any
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.external == nil {
		o.external = map[string]any{}
	}

	return o
}

// WithLogger sets the logger used for evaluation traces and splitter
// diagnostics. Without it nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithExternal sets the table that #-scoped steps read from.
// Without it the table is empty.
func WithExternal(table map[string]any) Option {
	return func(o *options) { o.external = table }
}
