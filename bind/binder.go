package bind

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/bindable/lang"
)

// Binder keeps the sites bound in one tree up to date with one store.
//
// All tree access happens under the binder's mutex. Evaluation does not:
// sites affected by the same change are evaluated concurrently and only
// their writes are serialized.
type Binder struct {
	tree  Tree
	store *lang.Store
	opts  options

	mu     sync.Mutex
	sites  map[siteID]site
	nextID siteID
}

// New returns a Binder that renders values from store into tree.
func New(tree Tree, store *lang.Store, opts ...Option) *Binder {
	return &Binder{
		tree:  tree,
		store: store,
		opts:  makeOptions(opts...),
		sites: make(map[siteID]site),
	}
}

// Bind creates sites for every expression found in targets and their
// descendants, renders them, and returns the number of sites created.
//
// Text nodes holding expressions are split into literal text nodes and one
// anchor per expression. Attributes whose name holds an expression get a
// site that renders both name and value; otherwise an expression in the
// value gets a site that renders the value alone. A target of an
// unsupported kind is logged and skipped.
func (b *Binder) Bind(ctx context.Context, targets ...Node) int {
	b.mu.Lock()

	var ids []siteID
	for _, t := range targets {
		ids = b.bind(ctx, t, ids)
	}

	b.mu.Unlock()

	b.refresh(ctx, ids)

	return len(ids)
}

// Unbind removes every site located in or equal to one of targets and
// returns how many were removed. An element or fragment covers the text
// sites inside it and the attribute sites of itself and its descendants;
// a text node covers only its own site; an [Attr] covers only the site of
// that attribute. The rendered content stays in the tree.
func (b *Binder) Unbind(ctx context.Context, targets ...Node) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0

	for _, t := range targets {
		k := b.kind(t)
		if k == KindOther {
			b.unsupported(ctx, "unbind", t)

			continue
		}

		for id, s := range b.sites {
			if b.contains(t, k, s) {
				delete(b.sites, id)

				removed++
			}
		}
	}

	return removed
}

// Update re-evaluates every site that depends on a name in c and returns
// after all of them have been rendered. It returns the number of sites
// re-evaluated. A fault or panic in one site does not affect the others.
func (b *Binder) Update(ctx context.Context, c lang.Change) int {
	if c.Empty() {
		return 0
	}

	b.mu.Lock()

	var ids []siteID

	for id, s := range b.sites {
		if s.affected(c) {
			ids = append(ids, id)
		}
	}

	b.mu.Unlock()

	slices.Sort(ids)

	b.opts.logger.DebugContext(ctx, "update",
		slog.Any("change", c),
		slog.Int("sites", len(ids)),
	)

	b.refresh(ctx, ids)

	return len(ids)
}

// Watch subscribes the binder to its store, so that every store mutation
// runs one Update. Call the returned function to stop.
func (b *Binder) Watch() (cancel func()) {
	return b.store.Subscribe(func(ctx context.Context, c lang.Change) {
		b.Update(ctx, c)
	})
}

// SiteInfo describes one bound site.
type SiteInfo struct {
	Kind      string
	Values    []string
	Functions []string
}

// Sites describes the bound sites in creation order.
func (b *Binder) Sites() []SiteInfo {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := slices.Sorted(maps.Keys(b.sites))
	out := make([]SiteInfo, len(ids))

	for i, id := range ids {
		s := b.sites[id]
		d := s.deps()
		out[i] = SiteInfo{Kind: s.kind(), Values: d.Values, Functions: d.Functions}
	}

	return out
}

// Dependencies returns every store name some site depends on.
func (b *Binder) Dependencies() lang.Change {
	var c lang.Change

	for _, s := range b.Sites() {
		c = c.Merge(lang.Change{Values: s.Values, Functions: s.Functions})
	}

	return c
}

// refresh evaluates and renders the given sites concurrently.
func (b *Binder) refresh(ctx context.Context, ids []siteID) {
	var g errgroup.Group

	if b.opts.limit > 0 {
		g.SetLimit(b.opts.limit)
	}

	for _, id := range ids {
		g.Go(func() error {
			b.refreshSite(ctx, id)

			return nil
		})
	}

	_ = g.Wait()
}

func (b *Binder) refreshSite(ctx context.Context, id siteID) {
	defer func() {
		if r := recover(); r != nil {
			b.opts.logger.ErrorContext(ctx, "site update failed",
				slog.Any("error", ErrSitePanic.With(
					slog.Uint64("site", uint64(id)),
					slog.String("panic", fmt.Sprint(r)),
				)),
			)
		}
	}()

	b.mu.Lock()
	s, ok := b.sites[id]
	b.mu.Unlock()

	if !ok {
		return
	}

	r := b.evaluate(ctx, s)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Unbound while evaluating.
	if b.sites[id] != s {
		return
	}

	b.write(s, r)
}

func (b *Binder) kind(n Node) Kind {
	if _, ok := n.(Attr); ok {
		return KindAttr
	}

	return b.tree.Kind(n)
}

func (b *Binder) add(s site) siteID {
	id := b.nextID
	b.nextID++
	b.sites[id] = s

	return id
}

func (b *Binder) unsupported(ctx context.Context, op string, n Node) {
	b.opts.logger.ErrorContext(ctx, "cannot "+op,
		slog.Any("error", ErrUnsupportedNode.With(
			slog.String("type", fmt.Sprintf("%T", n)),
		)),
	)
}

// bind walks n and appends the ids of the sites it creates.
// The caller holds b.mu.
func (b *Binder) bind(ctx context.Context, n Node, ids []siteID) []siteID {
	switch k := b.kind(n); k {
	case KindText:
		return b.bindText(ctx, n, ids)
	case KindElement, KindFragment:
		return b.bindTree(ctx, n, ids)
	case KindAttr:
		a, _ := n.(Attr)
		if attr, ok := b.lookupAttr(a); ok {
			return b.bindAttr(ctx, attr, ids)
		}

		return ids
	case KindOther:
		b.unsupported(ctx, "bind", n)
	}

	return ids
}

func (b *Binder) bindTree(ctx context.Context, n Node, ids []siteID) []siteID {
	for _, a := range b.tree.Attrs(n) {
		ids = b.bindAttr(ctx, a, ids)
	}

	for _, c := range b.tree.Children(n) {
		switch b.tree.Kind(c) {
		case KindText:
			ids = b.bindText(ctx, c, ids)
		case KindElement, KindFragment:
			ids = b.bindTree(ctx, c, ids)
		case KindAttr, KindOther:
		}
	}

	return ids
}

func (b *Binder) bindText(ctx context.Context, n Node, ids []siteID) []siteID {
	t := lang.Split(ctx, b.tree.Text(n), b.opts.split...)
	if t == nil {
		return ids
	}

	if !t.HasExpressions() {
		b.tree.SetText(n, literal(t))

		return ids
	}

	nodes := make([]Node, len(t))

	for i, seg := range t {
		if !seg.IsExpression() {
			nodes[i] = b.tree.NewText(seg.Text)

			continue
		}

		anchor := b.tree.NewText("")
		nodes[i] = anchor
		ids = append(ids, b.add(&textSite{expr: seg.Expr, span: []Node{anchor}}))
	}

	b.tree.Replace(n, nodes...)

	return ids
}

func (b *Binder) bindAttr(ctx context.Context, a Attr, ids []siteID) []siteID {
	nameT := lang.Split(ctx, a.Name, b.opts.split...)
	valueT := lang.Split(ctx, a.Value, b.opts.split...)

	name, value := newPart(nameT, a.Name), newPart(valueT, a.Value)

	switch {
	case name.expr != nil:
		return append(ids, b.add(&attrNameSite{
			owner: a.Owner,
			name:  a.Name,
			key:   name,
			value: value,
		}))
	case value.expr != nil:
		if name.text != a.Name {
			b.tree.RemoveAttr(a.Owner, a.Name)
		}

		return append(ids, b.add(&attrValueSite{
			owner: a.Owner,
			name:  name.text,
			value: value,
		}))
	case nameT != nil || valueT != nil:
		if name.text != a.Name {
			b.tree.RemoveAttr(a.Owner, a.Name)
		}

		b.tree.SetAttr(a.Owner, name.text, value.text)
	}

	return ids
}

func (b *Binder) lookupAttr(a Attr) (Attr, bool) {
	for _, attr := range b.tree.Attrs(a.Owner) {
		if attr.Name == a.Name {
			return attr, true
		}
	}

	return Attr{}, false
}
