// Package dom adapts golang.org/x/net/html documents to [bind.Tree], so a
// [bind.Binder] can render expressions straight into parsed HTML.
package dom
