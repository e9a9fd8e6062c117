package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

// Split prints the literal and expression segments of a text.
type Split struct {
	Text   string `arg:"" help:"Text containing {{ expression }} segments"`
	Format string `default:"text" enum:"text,json,yaml" help:"Output format (${enum})." short:"F"`
}

// Run executes the split command.
func (s *Split) Run(ctx context.Context) error {
	return s.run(ctx, stdout(ctx))
}

func (s *Split) run(ctx context.Context, w io.Writer) error {
	tmpl := lang.Split(ctx, s.Text, lang.WithLogger(log.Default()))

	if s.Format != formatText {
		segs := make([]any, len(tmpl))

		for i, seg := range tmpl {
			if seg.IsExpression() {
				segs[i] = map[string]any{"expression": seg.Expr.String()}
			} else {
				segs[i] = map[string]any{"literal": seg.Text}
			}
		}

		return encode(ctx, w, s.Format, segs)
	}

	var b strings.Builder

	for _, seg := range tmpl {
		if seg.IsExpression() {
			fmt.Fprintf(&b, "%s%s\n", label("expression"), seg.Expr)
		} else {
			fmt.Fprintf(&b, "%s%s\n", label("literal"), lang.Quote(seg.Text))
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
