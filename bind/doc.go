// Package bind keeps the expressions embedded in a document tree rendered
// against a [lang.Store].
//
// A [Binder] walks the nodes it is given and creates one site per
// expression it finds in text or attributes:
//
//	<p class="{{level}}">Hello {{name}}!</p>
//
// binds an attribute-value site for class and a text site for name. Each
// site remembers the names its expression depends on, so [Binder.Update]
// re-evaluates only the sites a [lang.Change] affects:
//
//	b := bind.New(tree, store)
//	b.Bind(ctx, root)
//	defer b.Watch()()
//	store.Set(ctx, "name", "Lin") // re-renders the text site only
//
// The document itself is reached only through the [Tree] interface.
package bind
