package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/bindable/lang"
)

// Parse prints the canonical form, dependencies, and steps of an expression.
type Parse struct {
	Expression string `arg:"" help:"Expression source, e.g. 'user.name.@upper()'"`
	Format     string `default:"text" enum:"text,json,yaml" help:"Output format (${enum})." short:"F"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) error {
	return p.run(ctx, stdout(ctx))
}

func (p *Parse) run(ctx context.Context, w io.Writer) error {
	expr, err := lang.Parse(p.Expression)
	if err != nil {
		reportSyntax(err)

		return ErrParseExpr.Wrap(err)
	}

	if p.Format != formatText {
		return encode(ctx, w, p.Format, expr.ToMap())
	}

	var b strings.Builder

	fmt.Fprintf(&b, "%s%s\n", label("canonical"), expr)
	fmt.Fprintf(&b, "%s%s\n", label("values"), strings.Join(expr.Values(), ", "))
	fmt.Fprintf(&b, "%s%s\n", label("functions"), strings.Join(expr.Functions(), ", "))

	for i, s := range expr.Steps() {
		fmt.Fprintf(&b, "%s%-8s %s\n", label(fmt.Sprintf("step %d", i)), s.Scope, s)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
