package bind

import (
	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

// Option configures a [Binder].
type Option func(*options)

type options struct {
	logger   log.Logger
	external map[string]any
	trace    bool
	limit    int

	eval  []lang.Option
	split []lang.Option
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	o.split = []lang.Option{lang.WithLogger(o.logger)}
	o.eval = []lang.Option{lang.WithExternal(o.external)}

	if o.trace {
		o.eval = append(o.eval, lang.WithLogger(o.logger))
	}

	return o
}

func (o options) lang() []lang.Option { return o.eval }

// WithLogger sets the logger for diagnostics. Without it nothing is logged.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithExternal sets the table #-scoped steps read from.
func WithExternal(table map[string]any) Option {
	return func(o *options) { o.external = table }
}

// WithTrace enables per-step evaluation records at trace level.
func WithTrace(enable bool) Option {
	return func(o *options) { o.trace = enable }
}

// WithConcurrency limits how many sites are evaluated at once. Zero or
// less means no limit.
func WithConcurrency(n int) Option {
	return func(o *options) { o.limit = n }
}
