package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/net/html"

	"github.com/ardnew/bindable/bind"
	"github.com/ardnew/bindable/dom"
	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

// Render binds a template to a store and prints the result.
type Render struct {
	Values `embed:""`

	Template string `arg:"" default:"-" help:"HTML template file or '-' for stdin" type:"existingfile"`
	Output   string `help:"Write the rendered document to a file" placeholder:"FILE" short:"o" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	if r.Output == "" {
		return r.run(ctx, stdout(ctx))
	}

	f, err := os.Create(r.Output)
	if err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("path", r.Output))
	}

	defer f.Close()

	return r.run(ctx, f)
}

func (r *Render) run(ctx context.Context, w io.Writer) error {
	text, err := readTemplate(r.Template)
	if err != nil {
		return err
	}

	store, err := r.store(ctx)
	if err != nil {
		return err
	}

	doc, err := bindDocument(ctx, text, store, r.binderOptions()...)
	if err != nil {
		return err
	}

	return doc.write(w)
}

// document is a parsed template bound to a store.
type document struct {
	root   *html.Node
	binder *bind.Binder
}

// bindDocument parses text as HTML and binds every site in it.
func bindDocument(ctx context.Context, text string, store *lang.Store, opts ...bind.Option) (*document, error) {
	root, err := dom.Load(text)
	if err != nil {
		return nil, ErrReadTemplate.Wrap(err)
	}

	b := bind.New(dom.Tree{}, store, opts...)
	n := b.Bind(ctx, root)

	log.DebugContext(ctx, "template bound", slog.Int("sites", n))

	return &document{root: root, binder: b}, nil
}

// write renders the document followed by a newline.
func (d *document) write(w io.Writer) error {
	if _, err := io.WriteString(w, d.String()+"\n"); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

func (d *document) String() string { return dom.String(d.root) }
