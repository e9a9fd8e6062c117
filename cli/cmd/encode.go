package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/bindable/lang"
)

// Output formats shared by the parse and split commands.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// encode writes v as an indented JSON or YAML document.
func encode(ctx context.Context, w io.Writer, format string, v any) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case formatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		data = append(data, '\n')

	default:
		data, err = yaml.MarshalContext(ctx, v, yaml.Indent(2))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}
	}

	if _, err := w.Write(data); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	caretStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// label pads and styles a field name of text output.
func label(name string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", name))
}

// reportSyntax prints the source line and a caret under the failure column
// of a syntax error to stderr. Other errors are ignored.
func reportSyntax(err error) {
	var se *lang.SyntaxError
	if !errors.As(err, &se) {
		return
	}

	fmt.Fprint(os.Stderr, caretStyle.Render(se.Snippet()))
	fmt.Fprintln(os.Stderr, se.Error())
}
