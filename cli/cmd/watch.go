package cmd

import (
	"context"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ardnew/bindable/lang"
	"github.com/ardnew/bindable/log"
)

// debounce is how long file events must settle before a reload.
const debounce = 100 * time.Millisecond

// Watch renders a template and re-renders it whenever the template or one of
// its values files changes.
type Watch struct {
	Values `embed:""`

	Template string `arg:"" help:"HTML template file" type:"existingfile"`
}

// Run executes the watch command until interrupted.
func (w *Watch) Run(ctx context.Context) error {
	if w.Template == stdinSource {
		return ErrStdinTemplate
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rw, err := newReloader(ctx, &w.Values, w.Template, stdout(ctx))
	if err != nil {
		return err
	}

	defer rw.close()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ErrWatch.Wrap(err)
	}

	defer fsw.Close()

	for _, dir := range rw.dirs() {
		if err := fsw.Add(dir); err != nil {
			return ErrWatch.Wrap(err).With(slog.String("dir", dir))
		}

		log.InfoContext(ctx, "watching", slog.String("dir", dir))
	}

	return rw.loop(ctx, fsw)
}

// reloader owns the store and bound document of a watch session.
type reloader struct {
	values   *Values
	template string
	files    []string
	out      io.Writer

	store   *lang.Store
	doc     *document
	current *lang.Object
	cancel  func()
}

func newReloader(ctx context.Context, v *Values, template string, out io.Writer) (*reloader, error) {
	r := &reloader{
		values:   v,
		template: absPath(template),
		files:    uniqueFiles(v.Files),
		out:      out,
	}

	store, err := v.store(ctx)
	if err != nil {
		return nil, err
	}

	r.store = store
	r.current = lang.ObjectOf(store.Values())

	if err := r.rebind(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// dirs returns the sorted directories holding the watched files.
func (r *reloader) dirs() []string {
	var dirs []string

	for _, path := range append([]string{r.template}, r.files...) {
		if dir := filepath.Dir(path); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	slices.Sort(dirs)

	return dirs
}

func (r *reloader) close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// loop collects file events and reloads once they settle.
func (r *reloader) loop(ctx context.Context, fsw *fsnotify.Watcher) error {
	pending := make(map[string]struct{})

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if name := filepath.Clean(event.Name); r.watches(name) {
				pending[name] = struct{}{}
				timer.Reset(debounce)
			}

		case <-timer.C:
			if err := r.reload(ctx, pending); err != nil {
				log.ErrorContext(ctx, "reload failed", slog.Any("error", err))
			}

			clear(pending)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}

			log.WarnContext(ctx, "watcher error", slog.Any("error", err))
		}
	}
}

func (r *reloader) watches(path string) bool {
	return path == r.template || slices.Contains(r.files, path)
}

// reload applies the changed files. Values load first so a template
// changed in the same window binds against them. A template change rebinds
// from scratch; a values change updates only the names whose values differ.
func (r *reloader) reload(ctx context.Context, changed map[string]struct{}) error {
	_, template := changed[r.template]

	values := slices.ContainsFunc(r.files, func(path string) bool {
		_, ok := changed[path]

		return ok
	})

	if values {
		if err := r.apply(ctx); err != nil {
			return err
		}
	}

	switch {
	case template:
		log.InfoContext(ctx, "template changed", slog.String("path", r.template))

		return r.rebind(ctx)
	case values:
		return r.print()
	default:
		return nil
	}
}

// apply reloads the values files and writes the difference to the store.
func (r *reloader) apply(ctx context.Context) error {
	vals, err := r.values.load(ctx, r.store)
	if err != nil {
		return err
	}

	set := make(map[string]any)

	for name, v := range vals.All() {
		if old, ok := r.current.Get(name); !ok || !lang.Equal(old, v) {
			set[name] = v
		}
	}

	var gone []string

	for _, name := range r.current.Keys() {
		if _, ok := vals.Get(name); !ok {
			gone = append(gone, name)
		}
	}

	r.current = vals

	c := r.store.SetValues(ctx, set)
	if len(gone) > 0 {
		c = c.Merge(r.store.Delete(ctx, gone...))
	}

	log.InfoContext(ctx, "values changed", slog.Any("change", c))

	return nil
}

// rebind reads the template and binds a fresh document to the store.
func (r *reloader) rebind(ctx context.Context) error {
	text, err := readTemplate(r.template)
	if err != nil {
		return err
	}

	doc, err := bindDocument(ctx, text, r.store, r.values.binderOptions()...)
	if err != nil {
		return err
	}

	r.close()
	r.doc, r.cancel = doc, doc.binder.Watch()

	return r.print()
}

func (r *reloader) print() error { return r.doc.write(r.out) }

func absPath(path string) string {
	if resolved, _, ok := resolveFile(path); ok {
		return resolved
	}

	return filepath.Clean(path)
}
